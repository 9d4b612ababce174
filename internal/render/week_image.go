package render

import (
	"bytes"
	"image/color"
	"os"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/schedule"
)

// Layout constants.
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	columnGap        = 3.0
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 2
	hourPaddingBot   = 2
	defaultMinHour   = 8
	defaultMaxHour   = 20
)

// Font sizes.
const (
	titleFontSize      = 25.0
	dayFontSize        = 27.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 17.0
	legendItemFontSize = 12.0
)

// Color scheme.
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	eventColor     = color.RGBA{255, 183, 77, 230}
	tutoringColor  = color.RGBA{133, 193, 85, 220}
	groupMeetColor = color.RGBA{100, 181, 246, 230}
	courseColor    = color.RGBA{186, 134, 212, 230}
	defaultColor   = color.RGBA{220, 220, 220, 200}

	slotTextColor   = color.RGBA{20, 24, 28, 230}
	slotShadowColor = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// hourRange is the vertical hour span of the grid, padded around the
// earliest and latest occurrence of the week.
type hourRange struct {
	start int
	end   int
	total int
}

// WeekImage renders a user's week into a PNG calendar grid.
// Overlapping occurrences are laid out side by side using the column
// assignments from the layout engine.
type WeekImage struct {
	font *opentype.Font
}

// NewWeekImage loads the optional TTF at fontPath. An empty path or an
// unreadable file falls back to the built-in bitmap font.
func NewWeekImage(fontPath string) *WeekImage {
	r := &WeekImage{}
	if fontPath == "" {
		return r
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return r
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return r
	}
	r.font = parsed
	return r
}

func (r *WeekImage) setFont(dc *gg.Context, size float64) {
	if r.font != nil {
		face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// Render draws the week containing weekStart. The occurrence list is
// the full week set (no series collapsing) as returned by the schedule
// service.
func (r *WeekImage) Render(weekStart time.Time, occurrences []*model.SessionOccurrence) ([]byte, error) {
	week := schedule.WeekOf(weekStart)
	today := schedule.DayOf(time.Now())
	highlightToday := week.Contains(today)

	byID := make(map[uuid.UUID]*model.SessionOccurrence, len(occurrences))
	for _, occ := range occurrences {
		byID[occ.ID] = occ
	}

	hours := calculateHourRange(occurrences)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	r.drawHeader(dc, week)
	r.drawHourLabels(dc, hours, cellHeight)

	events := toTimedEvents(occurrences)
	currentDate := week.Start
	for dayIndex := 0; dayIndex < totalDaysInWeek; dayIndex++ {
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		isToday := highlightToday && schedule.SameDay(currentDate, today)
		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, isToday)
		r.drawDayHeader(dc, currentDate, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)

		for _, ev := range schedule.LayoutDay(events, currentDate) {
			r.drawOccurrence(dc, ev, byID[ev.ID], x, y, dayWidth, hours, cellHeight)
		}

		currentDate = currentDate.AddDate(0, 0, 1)
	}

	drawCurrentTimeLine(dc, highlightToday, hours, cellHeight, dayWidth)
	r.drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toTimedEvents(occurrences []*model.SessionOccurrence) []schedule.TimedEvent {
	events := make([]schedule.TimedEvent, 0, len(occurrences))
	for _, occ := range occurrences {
		events = append(events, schedule.TimedEvent{
			ID:    occ.ID,
			Title: occ.Title,
			Start: occ.StartTime,
			End:   occ.EndTime,
		})
	}
	return events
}

func calculateHourRange(occurrences []*model.SessionOccurrence) hourRange {
	minHour := 24
	maxHour := 0

	for _, occ := range occurrences {
		startH := occ.StartTime.Hour()
		endH := occ.EndTime.Hour()
		if occ.EndTime.Minute() > 0 {
			endH++
		}
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := minHour - hourPaddingTop
	endHour := maxHour + hourPaddingBot
	if startHour < 0 {
		startHour = 0
	}
	if endHour > 23 {
		endHour = 23
	}

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour + 1,
	}
}

func (r *WeekImage) drawHeader(dc *gg.Context, week schedule.WeekBounds) {
	title := week.Start.Month().String()
	if week.End.Month() != week.Start.Month() {
		title += " - " + week.End.Month().String()
	}

	r.setFont(dc, titleFontSize)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2, float64(headerHeight)/8+h/2, 0, 0)
}

func (r *WeekImage) drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	r.setFont(dc, hourLabelFontSize)
	dc.SetColor(hourLabelColor)

	for hIdx := 0; hIdx < hours.total; hIdx++ {
		actualHour := hours.start + hIdx
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(actualHour), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	if isToday {
		dc.SetColor(todayBgColor)
	} else if dayIndex%2 == 0 {
		dc.SetColor(evenDayColor)
	} else {
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func (r *WeekImage) drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	weekdayStr := date.Weekday().String()[:3]
	dateStr := date.Format("02.01")

	r.setFont(dc, dayFontSize)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(dateStr, x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayStr, x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawOccurrence draws one positioned event. The event's Column and
// Columns split the day's width so overlapping sessions sit next to
// each other instead of on top of each other.
func (r *WeekImage) drawOccurrence(dc *gg.Context, ev schedule.PositionedEvent, occ *model.SessionOccurrence, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(ev.Start.Hour()) + float64(ev.Start.Minute())/60.0
	endHour := float64(ev.End.Hour()) + float64(ev.End.Minute())/60.0

	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := (endHour - startHour) * cellHeight
	if slotHeight < minSlotHeight {
		slotHeight = minSlotHeight
	}

	usableWidth := float64(dayWidth) - float64(dayPaddingX*2)
	colWidth := (usableWidth - columnGap*float64(ev.Columns-1)) / float64(ev.Columns)
	slotX := x + float64(dayPaddingX) + float64(ev.Column)*(colWidth+columnGap)

	fillColor := categoryColor(occ)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(slotX+shadowOffset, slotY+2+shadowOffset, colWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fillColor)
	dc.DrawRoundedRectangle(slotX, slotY+2, colWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fillColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(slotX, slotY+2, colWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	r.setFont(dc, slotTimeFontSize)
	dc.SetColor(slotTextColor)
	txtX := slotX + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(ev.Start.Format("15:04"), txtX, txtY, 0, 0)

	if slotHeight > 25 {
		r.setFont(dc, slotTimeFontSize-2)
		dc.SetColor(slotTextColor)
		dc.DrawStringAnchored(truncateTitle(ev.Title, ev.Columns), txtX, txtY+16, 0, 0)
	}
}

// truncateTitle shortens a slot title to fit its column. Cuts on rune
// boundaries so multi-byte titles never end mid-character.
func truncateTitle(title string, columns int) string {
	maxLen := 20 / columns
	if maxLen < 6 {
		maxLen = 6
	}
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-3]) + "..."
}

func categoryColor(occ *model.SessionOccurrence) color.RGBA {
	if occ == nil {
		return defaultColor
	}
	switch occ.Category {
	case model.CategoryEvent:
		return eventColor
	case model.CategoryTutoring:
		return tutoringColor
	case model.CategoryGroupMeet:
		return groupMeetColor
	case model.CategoryCourse:
		return courseColor
	default:
		return defaultColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, shouldHighlight bool, hours hourRange, cellHeight float64, dayWidth int) {
	if !shouldHighlight {
		return
	}

	now := time.Now()
	currentHour := float64(now.Hour()) + float64(now.Minute())/60.0

	if currentHour < float64(hours.start) || currentHour > float64(hours.end) {
		return
	}

	currentTimeY := float64(headerHeight) + (currentHour-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), currentTimeY, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), currentTimeY)
	dc.Stroke()
}

func (r *WeekImage) drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 130.0

	legendItems := []struct {
		Label string
		Clr   color.Color
	}{
		{"Event", eventColor},
		{"Tutoring", tutoringColor},
		{"Group meet", groupMeetColor},
		{"Course", courseColor},
	}

	boxW := 20.0
	boxH := 14.0
	liX := legendX
	liY := legendY + 22

	for _, item := range legendItems {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(liX, liY, boxW, boxH, 3)
		dc.Fill()

		r.setFont(dc, legendItemFontSize)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, liX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

func formatHourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/render"
	"github.com/superALLEY/EduConnect-sub001/internal/schedule"
)

// Renders a sample week to week.png for eyeballing layout changes.
func main() {
	week := schedule.WeekOf(time.Now())
	monday := week.Start

	occurrences := []*model.SessionOccurrence{
		occ("Algebra", model.CategoryTutoring, monday, 9, 10),
		occ("Study group", model.CategoryGroupMeet, monday, 14, 15),
		// Overlapping pair on Tuesday, should land side by side.
		occ("Geometry", model.CategoryTutoring, monday.AddDate(0, 0, 1), 10, 12),
		occ("Physics lab", model.CategoryCourse, monday.AddDate(0, 0, 1), 11, 13),
		occ("Guest lecture", model.CategoryEvent, monday.AddDate(0, 0, 2), 15, 17),
		// Three-way overlap on Friday.
		occ("Essay review", model.CategoryTutoring, monday.AddDate(0, 0, 4), 11, 13),
		occ("Book club", model.CategoryGroupMeet, monday.AddDate(0, 0, 4), 12, 14),
		occ("Statistics", model.CategoryCourse, monday.AddDate(0, 0, 4), 12, 13),
	}

	renderer := render.NewWeekImage(os.Getenv("FONT_PATH"))
	imageData, err := renderer.Render(monday, occurrences)
	if err != nil {
		fmt.Printf("Failed to render image: %v\n", err)
		os.Exit(1)
	}

	filename := "week.png"
	if err := os.WriteFile(filename, imageData, 0644); err != nil {
		fmt.Printf("Failed to save file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Saved %s\n", filename)
	fmt.Printf("Week: %s - %s\n", week.Start.Format("02.01.2006"), week.End.Format("02.01.2006"))
	fmt.Printf("Sessions: %d\n", len(occurrences))
}

func occ(title string, category model.SessionCategory, day time.Time, startHour, endHour int) *model.SessionOccurrence {
	return &model.SessionOccurrence{
		ID:        uuid.New(),
		Title:     title,
		Category:  category,
		StartTime: day.Add(time.Duration(startHour) * time.Hour),
		EndTime:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

package datasource

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/marketweek/pkg/models"
)

// feedWeekItems is how many items after the newest form the week.
const feedWeekItems = 5

var (
	numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?%?`)
	// ISO (2026-02-17) and day-first (17.02.2026, 17/02/26) dates.
	datePattern = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b|\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b`)
)

// parseFeed reads an RSS/Atom feed of observations, newest item first.
func parseFeed(page []byte) (models.Extraction, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(page))
	if err != nil {
		return models.Extraction{}, fmt.Errorf("parse feed: %w", err)
	}
	if len(feed.Items) < 2 {
		return models.Extraction{}, fmt.Errorf("feed has %d items, need at least 2", len(feed.Items))
	}

	n := min(len(feed.Items), feedWeekItems+1)
	values := make([]string, 0, n)
	for i, item := range feed.Items[:n] {
		v := itemValue(item)
		if v == "" {
			return models.Extraction{}, fmt.Errorf("feed item %d has no numeric value", i)
		}
		values = append(values, v)
	}

	return models.Extraction{Week: reversed(values[1:]), Latest: values[0]}, nil
}

// itemValue returns the first numeric token of the item's title, falling
// back to its description. Dates are not values.
func itemValue(item *gofeed.Item) string {
	for _, text := range []string{item.Title, item.Description} {
		text = strings.ReplaceAll(text, "'", "")
		text = datePattern.ReplaceAllString(text, " ")
		if m := numberPattern.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

package datasource

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/marketweek/pkg/models"
)

// rateWeekCells are the flat-cell offsets of the five most recent fixings,
// newest first.
var rateWeekCells = []int{1, 3, 5, 7, 9}

// parseRateTable reads a fixings table whose rows alternate between the
// tabledata1 and tabledata2 classes. The direct text nodes of every cell are
// flattened in document order.
func parseRateTable(doc *goquery.Document, latestIndex int) (models.Extraction, error) {
	var cells []string
	doc.Find("tr.tabledata1, tr.tabledata2").Each(func(_ int, row *goquery.Selection) {
		row.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
			td.Contents().Each(func(_ int, node *goquery.Selection) {
				if goquery.NodeName(node) == "#text" {
					cells = append(cells, stripNBSP(node.Text()))
				}
			})
		})
	})

	if len(cells) == 0 {
		return models.Extraction{}, fmt.Errorf("no tabledata rows found")
	}
	need := max(latestIndex, rateWeekCells[len(rateWeekCells)-1]) + 1
	if len(cells) < need {
		return models.Extraction{}, fmt.Errorf("rate table has %d cells, need %d", len(cells), need)
	}

	week := make([]string, 0, len(rateWeekCells))
	for _, i := range rateWeekCells {
		week = append([]string{cells[i]}, week...)
	}
	return models.Extraction{Week: week, Latest: cells[latestIndex]}, nil
}

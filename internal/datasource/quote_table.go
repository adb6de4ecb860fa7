package datasource

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/marketweek/pkg/models"
)

// quoteTokenIndex is the position of the closing value among the
// whitespace-separated tokens of a cr_dataTable row.
const quoteTokenIndex = 4

// quoteTableTokens returns the closing-value token of every row of the first
// cr_dataTable body, newest row first, with thousands apostrophes removed.
// At most limit rows are read when limit > 0.
func quoteTableTokens(doc *goquery.Document, limit int) ([]string, error) {
	body := doc.Find("table.cr_dataTable").First().Find("tbody").First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("no cr_dataTable body found")
	}

	var (
		tokens []string
		err    error
	)
	body.ChildrenFiltered("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if limit > 0 && i >= limit {
			return false
		}
		fields := strings.Fields(row.Text())
		if len(fields) <= quoteTokenIndex {
			err = fmt.Errorf("row %d has %d tokens, need %d", i, len(fields), quoteTokenIndex+1)
			return false
		}
		tokens = append(tokens, strings.ReplaceAll(fields[quoteTokenIndex], "'", ""))
		return true
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// parseCommodityQuote reads a commodity history table plus the page's live
// quote node. The first row is today's partial line and is skipped.
func parseCommodityQuote(doc *goquery.Document) (models.Extraction, error) {
	tokens, err := quoteTableTokens(doc, 0)
	if err != nil {
		return models.Extraction{}, err
	}
	if len(tokens) < 2 {
		return models.Extraction{}, fmt.Errorf("quote table has %d rows, need at least 2", len(tokens))
	}

	quote := doc.Find("span#quote_val").First()
	if quote.Length() == 0 {
		return models.Extraction{}, fmt.Errorf("no quote_val node found")
	}
	latest := strings.ReplaceAll(stripNBSP(quote.Text()), "'", "")
	if latest == "" {
		return models.Extraction{}, fmt.Errorf("quote_val node is empty")
	}

	return models.Extraction{Week: reversed(tokens[1:]), Latest: latest}, nil
}

// minIndexRows covers the skipped first row, the latest close and one
// week value.
const minIndexRows = 3

// parseIndexTable reads up to rows rows of an index history table. The
// second row holds the latest close; rows after it form the week, which is
// shorter when the page lists fewer rows.
func parseIndexTable(doc *goquery.Document, rows int) (models.Extraction, error) {
	tokens, err := quoteTableTokens(doc, rows)
	if err != nil {
		return models.Extraction{}, err
	}
	if len(tokens) < minIndexRows {
		return models.Extraction{}, fmt.Errorf("index table has %d rows, need at least %d", len(tokens), minIndexRows)
	}

	return models.Extraction{Week: reversed(tokens[2:]), Latest: tokens[1]}, nil
}

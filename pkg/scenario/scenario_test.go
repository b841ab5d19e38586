package scenario

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequestsSortsByDate(t *testing.T) {
	t.Parallel()

	data := `mood,job,need_size,event,request,request_date
happy,office manager,large,conference,"I need 500 reams of A4 paper, please",04/03/25
calm,teacher,small,assembly,We need 50 pens,04/01/25
odd,chef,small,party,balloons,not-a-date
rushed,planner,medium,ceremony,Cardstock for invitations,04/01/25
`
	reqs, err := LoadRequests(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, "We need 50 pens", reqs[0].Text)
	assert.Equal(t, "Cardstock for invitations", reqs[1].Text)
	assert.Equal(t, "I need 500 reams of A4 paper, please", reqs[2].Text)
	assert.Equal(t, time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), reqs[2].Date)
	assert.Equal(t, "conference", reqs[2].Event)
	assert.Equal(t, "office manager", reqs[2].Job)

	first, last, ok := Span(reqs)
	require.True(t, ok)
	assert.Equal(t, "2025-04-01", first.Format("2006-01-02"))
	assert.Equal(t, "2025-04-03", last.Format("2006-01-02"))
}

func TestLoadRequestsRequiresColumns(t *testing.T) {
	t.Parallel()

	_, err := LoadRequests(strings.NewReader("job,event\nteacher,assembly\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = LoadRequests(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadQuotes(t *testing.T) {
	t.Parallel()

	data := `request_id,total_amount,quote_explanation,order_date,job_type,order_size,event_type
1,94.5,"Bulk discount applied to paper",2025-01-01T00:00:00,office manager,large,conference
2,oops,bad row,2025-01-02,teacher,small,assembly
3,12,"Pens for class",2025-01-03,teacher,small,assembly
`
	quotes, err := LoadQuotes(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "1", quotes[0].RequestID)
	assert.True(t, quotes[0].TotalAmount.Equal(decimal.RequireFromString("94.5")))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), quotes[0].OrderDate)
	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), quotes[1].OrderDate)
	assert.Equal(t, "assembly", quotes[1].EventType)
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteResults(&buf, []Result{{
		RequestID:      1,
		RequestDate:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		CashBalance:    decimal.RequireFromString("45000.5"),
		InventoryValue: decimal.RequireFromString("5000"),
		Response:       "Sold:\n- Pens x 50, total $5.00",
	}})
	require.NoError(t, err)

	want := "request_id,request_date,cash_balance,inventory_value,response\n" +
		"1,2025-04-01,45000.50,5000.00,\"Sold:\n- Pens x 50, total $5.00\"\n"
	assert.Equal(t, want, buf.String())
}

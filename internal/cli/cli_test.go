package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/outlier"
)

func TestInterruptHandler(t *testing.T) {
	var out bytes.Buffer
	handler := NewInterruptHandler(&out, "Training")

	ctx, stop := handler.HandleInterrupts(context.Background())
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}
	assert.False(t, handler.WasInterrupted())

	handler.interrupt()
	handler.interrupt()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be canceled after an interrupt")
	}
	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(out.String(), "Training interrupted!"), "the message is shown once")
}

func TestInterruptHandler_Stop(t *testing.T) {
	handler := NewInterruptHandler(nil, "Processing")
	ctx, stop := handler.HandleInterrupts(context.Background())

	stop()
	stop()

	<-ctx.Done()
	assert.False(t, handler.WasInterrupted())
}

func TestStepProgress(t *testing.T) {
	var out bytes.Buffer
	steps := []string{"locate", "load", "fit"}
	p := NewStepProgress(&out, "Training", steps)

	fn := p.Func()
	fn("locate")
	assert.Equal(t, 0, p.done)
	fn("fit")
	assert.Equal(t, 2, p.done)
	fn("load")
	assert.Equal(t, 2, p.done, "steps never move backwards")
	fn("unknown")
	assert.Equal(t, 2, p.done)

	p.Finish()
	assert.Equal(t, 3, p.done)
	assert.NotEmpty(t, out.String())
}

func TestRenderTable(t *testing.T) {
	table := RenderTable([]string{"Feature", "Mean"}, [][]string{
		{"Mileage", "80000.00"},
		{"Price", "12000.00"},
		{"Short"},
	})

	lines := strings.Split(table, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, table, "Mileage")
	assert.Contains(t, table, "12000.00")
}

func TestRenderMetrics(t *testing.T) {
	box := RenderMetrics("Evaluation", model.Metrics{MSE: 1234.5, MAE: 12.25, R2: 0.98765})
	assert.Contains(t, box, "1234.50")
	assert.Contains(t, box, "12.25")
	assert.Contains(t, box, "0.9877")
}

func TestStatsRow(t *testing.T) {
	row := StatsRow("Price", outlier.Describe([]float64{1, 2, 3, 4, 5}))
	require.Len(t, row, len(StatsHeaders))
	assert.Equal(t, "Price", row[0])
	assert.Equal(t, "5", row[1])
	assert.Equal(t, "3.00", row[2])
	assert.Equal(t, "1.00", row[4])
	assert.Equal(t, "5.00", row[8])
}

package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

// chartDays is the width of the completion chart, today included.
const chartDays = 7

// Stats aggregates the user's tasks relative to now's calendar day.
func (r *TaskRepo) Stats(ctx context.Context, userID int64, now time.Time) (model.TaskStats, error) {
	var s model.TaskStats
	today := model.StartOfDay(now)

	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'completed'),
		       count(*) FILTER (WHERE status <> 'completed' AND priority = 'high'),
		       count(*) FILTER (WHERE status <> 'completed' AND due_date < $2),
		       count(*) FILTER (WHERE status <> 'completed' AND due_date >= $2 AND due_date < $3)
		FROM tasks
		WHERE user_id = $1
	`, userID, today, today.AddDate(0, 0, 1)).Scan(&s.Total, &s.Completed, &s.High, &s.Overdue, &s.DueToday)
	if err != nil {
		return s, err
	}
	s.Pending = s.Total - s.Completed

	rows, err := r.pool.Query(ctx, `
		SELECT updated_at FROM tasks
		WHERE user_id = $1 AND status = 'completed' AND updated_at >= $2
	`, userID, today.AddDate(0, 0, -(chartDays-1)))
	if err != nil {
		return s, err
	}
	completed, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return s, err
	}
	s.ChartData = buildChart(now, completed)
	return s, nil
}

// buildChart counts completions per calendar day for the chartDays days ending
// today, oldest first, labelled with the short weekday name.
func buildChart(now time.Time, completed []time.Time) []model.ChartPoint {
	today := model.StartOfDay(now)
	points := make([]model.ChartPoint, chartDays)
	for i := range points {
		day := today.AddDate(0, 0, i-(chartDays-1))
		points[i].Date = day.Format("Mon")
		for _, ts := range completed {
			if model.SameDay(ts.In(now.Location()), day) {
				points[i].Count++
			}
		}
	}
	return points
}

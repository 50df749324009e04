package dashboard

import (
	"context"
	"fmt"

	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// metrics are the headline KPIs over the orders mart.
type metrics struct {
	Orders      int64
	Customers   int64
	Revenue     float64
	AvgOrder    float64
	AvgReview   float64
	ReviewCount int64
}

type labeledValue struct {
	Label string
	Value float64
}

type segmentRow struct {
	Segment   string
	Customers int64
	Revenue   float64
}

func loadMetrics(ctx context.Context, sess warehouse.Session) (metrics, error) {
	var m metrics
	row := sess.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT customer_id),
			COALESCE(SUM(order_total), 0),
			COALESCE(AVG(order_total), 0),
			COALESCE(AVG(review_score), 0),
			COUNT(review_score)
		FROM marts.fct_orders
	`)
	if err := row.Scan(&m.Orders, &m.Customers, &m.Revenue, &m.AvgOrder, &m.AvgReview, &m.ReviewCount); err != nil {
		return m, fmt.Errorf("failed to load order metrics: %w", err)
	}
	return m, nil
}

func loadMonthlyRevenue(ctx context.Context, sess warehouse.Session, months int) ([]labeledValue, error) {
	return loadLabeled(ctx, sess, fmt.Sprintf(`
		SELECT order_month, SUM(order_total) AS revenue
		FROM marts.fct_orders
		GROUP BY order_month
		ORDER BY order_month DESC
		LIMIT %d
	`, months))
}

func loadTopCategories(ctx context.Context, sess warehouse.Session, limit int) ([]labeledValue, error) {
	return loadLabeled(ctx, sess, fmt.Sprintf(`
		SELECT COALESCE(product_category, 'unknown') AS category, SUM(price) AS revenue
		FROM marts.fct_order_items
		GROUP BY category
		ORDER BY revenue DESC
		LIMIT %d
	`, limit))
}

func loadOrdersByState(ctx context.Context, sess warehouse.Session, limit int) ([]labeledValue, error) {
	return loadLabeled(ctx, sess, fmt.Sprintf(`
		SELECT customer_state, COUNT(*) AS orders
		FROM marts.fct_orders
		GROUP BY customer_state
		ORDER BY orders DESC
		LIMIT %d
	`, limit))
}

func loadSegments(ctx context.Context, sess warehouse.Session) ([]segmentRow, error) {
	rows, err := sess.Query(ctx, `
		SELECT segment, COUNT(*) AS customers, SUM(monetary) AS revenue
		FROM marts.dim_customers
		GROUP BY segment
		ORDER BY revenue DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []segmentRow
	for rows.Next() {
		var s segmentRow
		if err := rows.Scan(&s.Segment, &s.Customers, &s.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan segment row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadLabeled(ctx context.Context, sess warehouse.Session, query string) ([]labeledValue, error) {
	rows, err := sess.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []labeledValue
	for rows.Next() {
		var lv labeledValue
		if err := rows.Scan(&lv.Label, &lv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard row: %w", err)
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}

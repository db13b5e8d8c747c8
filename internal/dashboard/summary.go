package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ironingOrderManagement/internal/authz"
	"ironingOrderManagement/internal/permissions"
	"ironingOrderManagement/internal/sla"
	"ironingOrderManagement/models"
	"ironingOrderManagement/repository"
)

// Priority ranks task queue entries.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// KPI is one headline figure on the dashboard.
type KPI struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Task is an order that needs someone's attention.
type Task struct {
	OrderID  string             `json:"order_id"`
	Title    string             `json:"title"`
	Status   models.OrderStatus `json:"status"`
	Priority Priority           `json:"priority"`
}

// Deadline is an open order still within its SLA window.
type Deadline struct {
	OrderID string             `json:"order_id"`
	Due     time.Time          `json:"due"`
	Status  models.OrderStatus `json:"status"`
}

// Summary is the role-specific dashboard landing view.
type Summary struct {
	Role              models.Role                `json:"role"`
	KPIs              []KPI                      `json:"kpis"`
	StatusBreakdown   map[models.OrderStatus]int `json:"status_breakdown"`
	TaskQueue         []Task                     `json:"task_queue"`
	UpcomingDeadlines []Deadline                 `json:"upcoming_deadlines"`
	RecentActivities  []models.Activity          `json:"recent_activities"`
}

// Summary builds the landing view for actor.
func (s *Service) Summary(ctx context.Context, actor models.Actor) (*Summary, error) {
	const op = "summary"
	if err := authz.Require(op, actor, permissions.ViewDashboard); err != nil {
		return nil, err
	}
	all, err := s.orders.List(ctx, repository.OrderQuery{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.clock()
	for i := range all {
		sla.Apply(&all[i], now)
	}

	sum := &Summary{Role: actor.Role}
	var scope []models.Order
	switch actor.Role {
	case models.RoleCustomer:
		scope = filter(all, func(o *models.Order) bool { return o.CustomerID == actor.ID })
		sum.KPIs = customerKPIs(scope)
		sum.TaskQueue = customerTasks(scope)
	case models.RoleServiceProvider:
		scope = filter(all, func(o *models.Order) bool { return o.AssignedTo(actor.ID) })
		pool := filter(all, func(o *models.Order) bool { return !o.IsAssigned() && o.Status == models.OrderStatusCreated })
		sum.KPIs = providerKPIs(scope, pool)
		sum.TaskQueue = providerTasks(scope, pool)
	case models.RoleAdmin:
		scope = all
		sum.KPIs = adminKPIs(scope)
		sum.TaskQueue = adminTasks(scope)
	}
	sum.StatusBreakdown = breakdown(scope)
	sum.UpcomingDeadlines = deadlines(scope, s.upcomingDeadlines)

	acts, err := s.listActivities(ctx, op, actor, s.recentActivities)
	if err != nil {
		return nil, err
	}
	sum.RecentActivities = acts
	return sum, nil
}

func filter(list []models.Order, keep func(*models.Order) bool) []models.Order {
	var out []models.Order
	for i := range list {
		if keep(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

func count(list []models.Order, match func(*models.Order) bool) int {
	return len(filter(list, match))
}

func statusIn(statuses ...models.OrderStatus) func(*models.Order) bool {
	return func(o *models.Order) bool {
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	}
}

func customerKPIs(mine []models.Order) []KPI {
	ready := count(mine, statusIn(models.OrderStatusReady, models.OrderStatusDelivered, models.OrderStatusPicked))
	return []KPI{
		{Key: "ordersPlaced", Title: "Orders Placed", Value: strconv.Itoa(len(mine))},
		{Key: "ordersReady", Title: "Orders Ready", Value: strconv.Itoa(ready)},
	}
}

func providerKPIs(mine, pool []models.Order) []KPI {
	inProgress := count(mine, statusIn(models.OrderStatusAccepted, models.OrderStatusIroning))
	completed := count(mine, statusIn(models.OrderStatusReady, models.OrderStatusDelivered, models.OrderStatusPicked))
	scheduled := count(mine, func(o *models.Order) bool {
		return statusIn(models.OrderStatusAccepted, models.OrderStatusIroning, models.OrderStatusReady)(o) &&
			o.DeliveryOption == models.DeliveryDoorstep
	})
	return []KPI{
		{Key: "ordersReceived", Title: "Orders Received", Value: strconv.Itoa(len(mine))},
		{Key: "ordersInProgress", Title: "Orders In Progress", Value: strconv.Itoa(inProgress)},
		{Key: "ordersCompleted", Title: "Orders Completed", Value: strconv.Itoa(completed)},
		{Key: "deliveriesScheduled", Title: "Deliveries Scheduled", Value: strconv.Itoa(scheduled)},
		{Key: "unassignedPool", Title: "Unassigned Orders", Value: strconv.Itoa(len(pool))},
	}
}

func adminKPIs(all []models.Order) []KPI {
	revenue := decimal.Zero
	for _, o := range all {
		revenue = revenue.Add(o.TotalAmount)
	}
	doorstep := count(all, func(o *models.Order) bool { return o.DeliveryOption == models.DeliveryDoorstep })
	return []KPI{
		{Key: "totalOrders", Title: "Total Orders", Value: strconv.Itoa(len(all))},
		{Key: "totalRevenue", Title: "Total Revenue", Value: "$" + revenue.StringFixed(2)},
		{Key: "avgTurnaround", Title: "Avg Turnaround Time", Value: fmt.Sprintf("%.1f hrs", AverageTurnaround(all).Hours())},
		{Key: "deliveryVsPickup", Title: "Delivery vs Pickup", Value: fmt.Sprintf("%d / %d", doorstep, len(all)-doorstep)},
	}
}

// AverageTurnaround is the mean time from the first to the last timeline entry over finished
// orders, or zero when none have finished.
func AverageTurnaround(orders []models.Order) time.Duration {
	var total time.Duration
	n := 0
	for _, o := range orders {
		if !o.Status.IsTerminal() || len(o.Timeline) < 2 {
			continue
		}
		total += o.Timeline[len(o.Timeline)-1].Timestamp.Sub(o.Timeline[0].Timestamp)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

func customerTasks(mine []models.Order) []Task {
	var out []Task
	for _, o := range mine {
		if o.Status.IsTerminal() {
			continue
		}
		p := PriorityMedium
		if o.Status == models.OrderStatusCreated {
			p = PriorityHigh
		}
		out = append(out, Task{OrderID: o.ID, Title: fmt.Sprintf("Order #%s - %s", o.ID, o.CustomerName), Status: o.Status, Priority: p})
	}
	return out
}

func providerTasks(mine, pool []models.Order) []Task {
	var out []Task
	for _, o := range mine {
		if o.Status == models.OrderStatusReady || o.Status.IsTerminal() {
			continue
		}
		p := PriorityMedium
		if o.SLAStatus == models.SLABreach || o.Status == models.OrderStatusAccepted {
			p = PriorityHigh
		}
		out = append(out, Task{OrderID: o.ID, Title: fmt.Sprintf("Order #%s for %s", o.ID, o.CustomerName), Status: o.Status, Priority: p})
	}
	for _, o := range pool {
		out = append(out, Task{OrderID: o.ID, Title: fmt.Sprintf("New Order #%s (Unassigned)", o.ID), Status: o.Status, Priority: PriorityHigh})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority == PriorityHigh && out[j].Priority != PriorityHigh
	})
	return out
}

func adminTasks(all []models.Order) []Task {
	var out []Task
	for _, o := range all {
		open := statusIn(models.OrderStatusCreated, models.OrderStatusAccepted, models.OrderStatusIroning)(&o)
		if !open && o.SLAStatus != models.SLABreach {
			continue
		}
		p := PriorityMedium
		if o.SLAStatus == models.SLABreach || o.Status == models.OrderStatusCreated {
			p = PriorityHigh
		}
		out = append(out, Task{OrderID: o.ID, Title: fmt.Sprintf("Order #%s - %s", o.ID, o.CustomerName), Status: o.Status, Priority: p})
	}
	return out
}

func breakdown(list []models.Order) map[models.OrderStatus]int {
	out := make(map[models.OrderStatus]int, len(models.OrderStatuses()))
	for _, s := range models.OrderStatuses() {
		out[s] = 0
	}
	for _, o := range list {
		out[o.Status]++
	}
	return out
}

// deadlines lists orders still Within SLA and not yet Ready, soonest first.
func deadlines(list []models.Order, limit int) []Deadline {
	var out []Deadline
	for _, o := range list {
		if o.SLADue == nil || o.SLAStatus != models.SLAWithin || o.Status == models.OrderStatusReady {
			continue
		}
		out = append(out, Deadline{OrderID: o.ID, Due: *o.SLADue, Status: o.Status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

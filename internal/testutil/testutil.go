package testutil

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ironingOrderManagement/internal/db"
	"ironingOrderManagement/models"
)

// OpenInMemoryDB opens a private in-memory SQLite database with migrations applied and closes it
// when the test ends. The name is suffixed so parallel tests never share a store.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name) + "_" + uuid.NewString()
	d, err := db.OpenMemory(name)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a signed session token carrying the claims the app reads.
func GenerateJWTHS256(t *testing.T, secret, sessionID string, actor models.Actor, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sid":  sessionID,
		"sub":  actor.ID,
		"name": actor.Name,
		"role": string(actor.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// Seeded actors, matching the embedded fixture.
var (
	Admin     = models.Actor{ID: "admin1", Name: "Alice Admin", Role: models.RoleAdmin}
	Customer  = models.Actor{ID: "cust1", Name: "Bob Customer", Role: models.RoleCustomer}
	Customer2 = models.Actor{ID: "cust2", Name: "Sarah Client", Role: models.RoleCustomer}
	Provider  = models.Actor{ID: "sp1", Name: "Charlie Ironer", Role: models.RoleServiceProvider}
	Provider2 = models.Actor{ID: "sp2", Name: "Diana Presser", Role: models.RoleServiceProvider}
)

// Clock is a settable time source for tests.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{T: t} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Item builds an order item with a decimal price given as a string.
func Item(cloth string, qty int, price string) models.OrderItem {
	return models.OrderItem{ClothType: cloth, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

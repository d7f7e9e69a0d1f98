package sandbox

import (
	"context"
	"fmt"
	"strings"

	"admingate/internal/models"
	"admingate/internal/observability"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// SeedOptions sizes the generated data set. The same Seed always produces the
// same records.
type SeedOptions struct {
	Seed      int64
	Branches  int
	Customers int
	Products  int
}

// SeedResult names the accounts a developer signs in as.
type SeedResult struct {
	MainAdmin *User
	Admin     *User
	Manager   *User
	Sales     *User
	Customers []User
	Branches  []Branch
	Products  []Product
}

func (o SeedOptions) withDefaults() SeedOptions {
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.Branches <= 0 {
		o.Branches = 3
	}
	if o.Customers <= 0 {
		o.Customers = 25
	}
	if o.Products <= 0 {
		o.Products = 20
	}
	return o
}

// Seed fills an empty sandbox database with fake staff, customers, catalog
// and inventory data.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) (*SeedResult, error) {
	opts = opts.withDefaults()
	f := gofakeit.New(opts.Seed)
	out := &SeedResult{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 0; i < opts.Branches; i++ {
			city := f.City()
			out.Branches = append(out.Branches, Branch{
				Name:     city + " " + f.Company(),
				Code:     fmt.Sprintf("BR-%03d", i+1),
				City:     city,
				IsActive: true,
			})
		}
		if err := tx.Create(&out.Branches).Error; err != nil {
			return fmt.Errorf("failed to seed branches: %w", err)
		}
		primary := &out.Branches[0].ID

		staff := func(email string, role models.Role, mainAdmin bool) *User {
			return &User{
				Email:       email,
				DisplayName: f.Name(),
				Phone:       f.Phone(),
				Role:        string(role),
				Status:      string(models.AccountStatusActive),
				IsMainAdmin: mainAdmin,
				BranchID:    primary,
			}
		}
		out.MainAdmin = staff("owner@sandbox.local", models.RoleAdmin, true)
		out.Admin = staff("admin@sandbox.local", models.RoleAdmin, false)
		out.Manager = staff("manager@sandbox.local", models.RoleManager, false)
		out.Sales = staff("sales@sandbox.local", models.RoleSales, false)
		for _, u := range []*User{out.MainAdmin, out.Admin, out.Manager, out.Sales} {
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("failed to seed staff: %w", err)
			}
		}

		for i := 0; i < opts.Customers; i++ {
			out.Customers = append(out.Customers, User{
				Email:       fmt.Sprintf("%s.%d@example.com", strings.ToLower(f.Username()), i),
				DisplayName: f.Name(),
				Phone:       f.Phone(),
				Role:        string(models.RoleCustomer),
				Status:      string(models.AccountStatusActive),
			})
		}
		if err := tx.Create(&out.Customers).Error; err != nil {
			return fmt.Errorf("failed to seed customers: %w", err)
		}

		for i := 0; i < opts.Products; i++ {
			branch := out.Branches[i%len(out.Branches)].ID
			out.Products = append(out.Products, Product{
				Name:      f.Color() + " " + f.Noun(),
				SKU:       fmt.Sprintf("SKU-%05d", i+1),
				Price:     f.Price(5, 500),
				Stock:     f.Number(0, 200),
				IsVisible: f.Bool(),
				BranchID:  &branch,
			})
		}
		if err := tx.Create(&out.Products).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}

		var requests []InventoryRequest
		for i, p := range out.Products {
			if i%4 != 0 {
				continue
			}
			note := f.Sentence(6)
			requests = append(requests, InventoryRequest{
				ProductID:         p.ID,
				BranchID:          *p.BranchID,
				Quantity:          f.Number(5, 50),
				Status:            string(models.InventoryRequestPending),
				Note:              &note,
				RequestedByUserID: out.Sales.ID,
			})
		}
		if len(requests) > 0 {
			if err := tx.Create(&requests).Error; err != nil {
				return fmt.Errorf("failed to seed inventory requests: %w", err)
			}
		}

		logs := []AuditLog{
			{Action: "SANDBOX_SEEDED", ActorUserID: out.MainAdmin.ID, TargetType: "SYSTEM", Metadata: JSONMap{"seed": opts.Seed}},
			{Action: string(models.ActionProductCreate), ActorUserID: out.Manager.ID, TargetType: "PRODUCT", TargetID: out.Products[0].ID},
		}
		if err := tx.Create(&logs).Error; err != nil {
			return fmt.Errorf("failed to seed audit logs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.GlobalLogger.InfoContext(ctx, "sandbox seeded",
		"branches", len(out.Branches),
		"customers", len(out.Customers),
		"products", len(out.Products),
	)
	return out, nil
}

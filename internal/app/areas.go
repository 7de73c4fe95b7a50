package app

import (
	"github.com/evmotion/dealer-portal/internal/accounts"
	"github.com/evmotion/dealer-portal/internal/backend"
	"github.com/evmotion/dealer-portal/internal/categories"
	"github.com/evmotion/dealer-portal/internal/contracts"
	"github.com/evmotion/dealer-portal/internal/customers"
	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/testdrives"
	"github.com/evmotion/dealer-portal/internal/vehicles"
)

// Areas builds every dashboard screen on top of the backend client, in menu
// order.
func Areas(api *backend.Client, page *dashboard.Page) []dashboard.Area {
	return []dashboard.Area{
		vehicles.NewHandler(vehicles.NewService(vehicles.NewRepository(api)), page),
		categories.NewHandler(categories.NewService(categories.NewRepository(api)), page),
		contracts.NewHandler(contracts.NewService(contracts.NewRepository(api)), page),
		customers.NewHandler(customers.NewService(customers.NewRepository(api)), page),
		testdrives.NewHandler(testdrives.NewService(testdrives.NewRepository(api)), page),
		accounts.NewHandler(accounts.NewService(accounts.NewRepository(api)), page),
	}
}

package store

import "field-service-api/internal/models"

// Collection names
const (
	TechniciansCollection   = "technicians"
	TeamsCollection         = "teams"
	ServiceOrdersCollection = "service_orders"
	ReportsCollection       = "reports"
	CitiesCollection        = "cities"
	NeighborhoodsCollection = "neighborhoods"
	ServiceTypesCollection  = "service_types"
	UsersCollection         = "users"
)

// Stores bundles one repository per entity type.
type Stores struct {
	Technicians   Repository[models.Technician]
	Teams         Repository[models.Team]
	ServiceOrders Repository[models.ServiceOrder]
	Reports       Repository[models.Report]
	Cities        Repository[models.City]
	Neighborhoods Repository[models.Neighborhood]
	ServiceTypes  Repository[models.ServiceType]
	Users         Repository[models.User]
}

func NewStores(b *Backend) *Stores {
	return &Stores{
		Technicians:   Collection[models.Technician](b, TechniciansCollection),
		Teams:         Collection[models.Team](b, TeamsCollection),
		ServiceOrders: Collection[models.ServiceOrder](b, ServiceOrdersCollection, "code"),
		Reports:       Collection[models.Report](b, ReportsCollection),
		Cities:        Collection[models.City](b, CitiesCollection, "name"),
		Neighborhoods: Collection[models.Neighborhood](b, NeighborhoodsCollection),
		ServiceTypes:  Collection[models.ServiceType](b, ServiceTypesCollection, "name"),
		Users:         Collection[models.User](b, UsersCollection, "email"),
	}
}

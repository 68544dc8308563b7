package domain

import "time"

// VehicleStatus is the availability of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleInTransit   VehicleStatus = "in-transit"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// DriverStatus is the availability of a driver.
type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverAssigned  DriverStatus = "assigned"
)

type Vehicle struct {
	ID          string        `json:"id" bson:"_id"`
	CompanyID   string        `json:"companyId" bson:"company_id"`
	PlateNumber string        `json:"plateNumber" bson:"plate_number"`
	Type        string        `json:"type" bson:"type"`
	Capacity    float64       `json:"capacity" bson:"capacity"`
	Status      VehicleStatus `json:"status" bson:"status"`
}

type Driver struct {
	ID            string       `json:"id" bson:"_id"`
	CompanyID     string       `json:"companyId" bson:"company_id"`
	Name          string       `json:"name" bson:"name"`
	Phone         string       `json:"phone" bson:"phone"`
	LicenseNumber string       `json:"licenseNumber" bson:"license_number"`
	Status        DriverStatus `json:"status" bson:"status"`
}

// VehicleAssignment links a shipment to a vehicle and driver. Insert-only.
type VehicleAssignment struct {
	ID         string    `json:"id" bson:"_id"`
	CompanyID  string    `json:"companyId" bson:"company_id"`
	ShipmentID string    `json:"shipmentId" bson:"shipment_id"`
	VehicleID  string    `json:"vehicleId" bson:"vehicle_id"`
	DriverID   string    `json:"driverId" bson:"driver_id"`
	AssignedAt time.Time `json:"assignedAt" bson:"assigned_at"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

func newFleetSvc(store *memStore, pub *stubPublisher) *FleetService {
	return NewFleetService(memFleet{store}, memShipments{store}, store, pub, zerolog.Nop())
}

func fleetFixture() *memStore {
	store := newMemStore()
	store.putShipment(&domain.Shipment{ID: "ship_1", CompanyID: "co_A"})
	store.putShipment(&domain.Shipment{ID: "ship_2", CompanyID: "co_A"})
	store.putShipment(&domain.Shipment{ID: "ship_B", CompanyID: "co_B"})
	store.putVehicle(domain.Vehicle{ID: "v1", CompanyID: "co_A", Status: domain.VehicleAvailable})
	store.putVehicle(domain.Vehicle{ID: "v_shop", CompanyID: "co_A", Status: domain.VehicleMaintenance})
	store.putVehicle(domain.Vehicle{ID: "v_B", CompanyID: "co_B", Status: domain.VehicleAvailable})
	store.putDriver(domain.Driver{ID: "d1", CompanyID: "co_A", Status: domain.DriverAvailable})
	store.putDriver(domain.Driver{ID: "d2", CompanyID: "co_A", Status: domain.DriverAvailable})
	store.putDriver(domain.Driver{ID: "d_busy", CompanyID: "co_A", Status: domain.DriverAssigned})
	return store
}

func TestFleetService_Assign_Success(t *testing.T) {
	store := fleetFixture()
	pub := &stubPublisher{}

	a, err := newFleetSvc(store, pub).Assign(context.Background(), ports.AssignInput{
		CompanyID: "co_A", ShipmentID: "ship_1", VehicleID: "v1", DriverID: "d1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ShipmentID != "ship_1" || a.VehicleID != "v1" || a.DriverID != "d1" || a.CompanyID != "co_A" {
		t.Errorf("unexpected assignment: %+v", a)
	}
	if v := store.vehicle("v1"); v.Status != domain.VehicleInTransit {
		t.Errorf("expected vehicle in-transit, got %s", v.Status)
	}
	if d := store.driver("d1"); d.Status != domain.DriverAssigned {
		t.Errorf("expected driver assigned, got %s", d.Status)
	}
	if store.assignmentCount() != 1 {
		t.Errorf("expected one assignment record")
	}
	if pub.count(TopicFleetAssigned) != 1 {
		t.Errorf("expected one fleet event")
	}
}

func TestFleetService_Assign_Failures(t *testing.T) {
	cases := []struct {
		name string
		in   ports.AssignInput
		want error
	}{
		{"missing vehicle", ports.AssignInput{ShipmentID: "ship_1", VehicleID: "nope", DriverID: "d1"}, domain.ErrVehicleNotFound},
		{"missing driver", ports.AssignInput{ShipmentID: "ship_1", VehicleID: "v1", DriverID: "nope"}, domain.ErrDriverNotFound},
		{"missing shipment", ports.AssignInput{ShipmentID: "nope", VehicleID: "v1", DriverID: "d1"}, domain.ErrShipmentNotFound},
		{"foreign vehicle", ports.AssignInput{ShipmentID: "ship_1", VehicleID: "v_B", DriverID: "d1"}, domain.ErrTenantMismatch},
		{"foreign shipment", ports.AssignInput{ShipmentID: "ship_B", VehicleID: "v1", DriverID: "d1"}, domain.ErrTenantMismatch},
		{"vehicle in maintenance", ports.AssignInput{ShipmentID: "ship_1", VehicleID: "v_shop", DriverID: "d1"}, domain.ErrVehicleUnavailable},
		{"driver busy", ports.AssignInput{ShipmentID: "ship_1", VehicleID: "v1", DriverID: "d_busy"}, domain.ErrDriverUnavailable},
		{"missing ids", ports.AssignInput{ShipmentID: "ship_1"}, domain.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := fleetFixture()
			tc.in.CompanyID = "co_A"

			_, err := newFleetSvc(store, &stubPublisher{}).Assign(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if store.assignmentCount() != 0 {
				t.Errorf("no assignment expected")
			}
			if v := store.vehicle("v1"); v.Status != domain.VehicleAvailable {
				t.Errorf("vehicle status changed to %s", v.Status)
			}
			if d := store.driver("d1"); d.Status != domain.DriverAvailable {
				t.Errorf("driver status changed to %s", d.Status)
			}
		})
	}
}

func TestFleetService_Assign_ConcurrentSameVehicle(t *testing.T) {
	store := fleetFixture()
	svc := newFleetSvc(store, &stubPublisher{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Assign(context.Background(), ports.AssignInput{
				CompanyID:  "co_A",
				ShipmentID: fmt.Sprintf("ship_%d", i+1),
				VehicleID:  "v1",
				DriverID:   fmt.Sprintf("d%d", i+1),
			})
		}(i)
	}
	wg.Wait()

	var ok, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrVehicleUnavailable):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got ok=%d lost=%d", ok, lost)
	}
	if store.assignmentCount() != 1 {
		t.Fatalf("expected one assignment, got %d", store.assignmentCount())
	}
}

func TestFleetService_Assign_ConcurrentSameDriver(t *testing.T) {
	store := fleetFixture()
	store.putVehicle(domain.Vehicle{ID: "v2", CompanyID: "co_A", Status: domain.VehicleAvailable})
	svc := newFleetSvc(store, &stubPublisher{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, vehicle := range []string{"v1", "v2"} {
		wg.Add(1)
		go func(i int, vehicle string) {
			defer wg.Done()
			_, errs[i] = svc.Assign(context.Background(), ports.AssignInput{
				CompanyID: "co_A", ShipmentID: "ship_1", VehicleID: vehicle, DriverID: "d1",
			})
		}(i, vehicle)
	}
	wg.Wait()

	var ok, lost int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, domain.ErrDriverUnavailable) {
			lost++
		}
	}
	if ok != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got ok=%d lost=%d (%v)", ok, lost, errs)
	}
}

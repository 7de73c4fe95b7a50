package testdrives

import (
	"encoding/json"

	"github.com/evmotion/dealer-portal/internal/shared"
)

// TestDrive is a booked test drive, flattened from the shapes the backend
// serves.
type TestDrive struct {
	ID            string
	CustomerName  string
	CustomerPhone string
	VehicleModel  string
	VehicleID     string
	ScheduledAt   string
	Status        string
	Note          string
}

// Fields returns the values searched by the list filter.
func (t TestDrive) Fields() []string {
	return []string{t.ID, t.CustomerName, t.CustomerPhone, t.VehicleModel, t.Status, t.ScheduledAt}
}

type party struct {
	ID    shared.FlexString `json:"id"`
	Name  string            `json:"name"`
	Phone shared.FlexString `json:"phone"`
	Model string            `json:"model"`
}

// wire accepts nested customer/vehicle/car objects as well as flat columns.
type wire struct {
	ID            shared.FlexString `json:"id"`
	TestDriveID   shared.FlexString `json:"testDriveId"`
	Customer      *party            `json:"customer"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone shared.FlexString `json:"customerPhone"`
	Vehicle       *party            `json:"vehicle"`
	Car           *party            `json:"car"`
	VehicleModel  string            `json:"vehicleModel"`
	CarModel      string            `json:"carModel"`
	VehicleID     shared.FlexString `json:"vehicleId"`
	CarID         shared.FlexString `json:"carId"`
	ScheduledAt   string            `json:"scheduledAt"`
	ScheduleAt    string            `json:"scheduleAt"`
	ScheduledTime string            `json:"scheduledTime"`
	Status        string            `json:"status"`
	Note          string            `json:"note"`
}

// UnmarshalJSON decodes any of the accepted shapes.
func (t *TestDrive) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var customer, vehicle, car party
	if w.Customer != nil {
		customer = *w.Customer
	}
	if w.Vehicle != nil {
		vehicle = *w.Vehicle
	}
	if w.Car != nil {
		car = *w.Car
	}
	*t = TestDrive{
		ID:            pick(w.ID.String(), w.TestDriveID.String()),
		CustomerName:  pick(customer.Name, w.CustomerName),
		CustomerPhone: pick(customer.Phone.String(), w.CustomerPhone.String()),
		VehicleModel:  pick(vehicle.Model, car.Model, w.VehicleModel, w.CarModel),
		VehicleID:     pick(vehicle.ID.String(), car.ID.String(), w.VehicleID.String(), w.CarID.String()),
		ScheduledAt:   pick(w.ScheduledAt, w.ScheduleAt, w.ScheduledTime),
		Status:        w.Status,
		Note:          w.Note,
	}
	return nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

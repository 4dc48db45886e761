package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCarrier stores an active carrier charging 200/ton, minimum 80, toll 50/m3 and 2% of value
func (tf *TestFixtures) CreateTestCarrier(name string) (*models.Carrier, error) {
	if name == "" {
		name = fmt.Sprintf("Carrier %d", rand.Intn(1000000))
	}
	now := utils.UTCNow()
	carrier := &models.Carrier{
		UUID:              uuid.New(),
		Name:              name,
		WeightUpTo50Kg:    decimal.NewFromInt(25),
		WeightUpTo100Kg:   decimal.NewFromInt(40),
		WeightUpTo150Kg:   decimal.NewFromInt(55),
		WeightUpTo200Kg:   decimal.NewFromInt(70),
		WeightUpTo300Kg:   decimal.NewFromInt(95),
		RatePerTon:        decimal.NewFromInt(200),
		MinimumFreight:    decimal.NewFromInt(80),
		TollPerCubicMeter: decimal.NewFromInt(50),
		PercentOfValue:    decimal.NewFromInt(2),
		CubicWeightFactor: decimal.NewFromInt(freight.VolumetricDensityKgPerM3),
		IsActive:          utils.ToPtr(true),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := tf.DB.DB.Create(carrier).Error; err != nil {
		return nil, fmt.Errorf("failed to create test carrier: %w", err)
	}
	return carrier, nil
}

// CreateTestShipment stores a shipment with one 100x60x40 cm package (0.24 m3, 72 kg estimated)
func (tf *TestFixtures) CreateTestShipment(orderNumber string) (*models.Shipment, error) {
	if orderNumber == "" {
		orderNumber = fmt.Sprintf("PED-%06d", rand.Intn(1000000))
	}
	now := utils.UTCNow()
	shipment := &models.Shipment{
		UUID:         uuid.New(),
		OrderNumber:  orderNumber,
		CustomerName: utils.ToPtr("Comercial Andrade Ltda"),
		Origin:       utils.ToPtr("Curitiba/PR"),
		Destination:  utils.ToPtr("Joinville/SC"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tf.DB.DB.Create(shipment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test shipment: %w", err)
	}

	m, err := freight.NewMeasurement(decimal.NewFromInt(100), decimal.NewFromInt(60), decimal.NewFromInt(40), 1)
	if err != nil {
		return nil, err
	}
	row := models.NewShipmentMeasurement(1, m, now)
	row.ShipmentID = shipment.ID
	if err := tf.DB.DB.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test measurement: %w", err)
	}
	shipment.Measurements = []models.ShipmentMeasurement{row}

	return shipment, nil
}

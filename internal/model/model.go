package model

import (
	"github.com/acquasense/potability/internal/model/entities"
	"github.com/acquasense/potability/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	WaterReading         = messages.WaterReading
	PotabilityAlertEvent = messages.PotabilityAlertEvent
	Station              = entities.Station
	WaterSensor          = entities.WaterSensor
)

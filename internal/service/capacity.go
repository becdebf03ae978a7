package service

import (
	"fmt"

	"github.com/academia-hub/agenda-api/internal/models"
	appErrors "github.com/academia-hub/agenda-api/pkg/errors"
)

// ValidateCapacity rejects a beneficiary count that exceeds the room's
// registered capacity. Advisory at evaluation time, mandatory at commit time.
func ValidateCapacity(room *models.Room, beneficiaryCount int) error {
	if room == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	if room.Capacity <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s has no usable capacity", room.ID))
	}
	if beneficiaryCount > room.Capacity {
		return appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("room %s holds %d, %d beneficiaries proposed", room.ID, room.Capacity, beneficiaryCount))
	}
	return nil
}

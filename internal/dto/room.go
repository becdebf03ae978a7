package dto

// CreateRoomRequest syncs a room record from the external registry.
type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
	Status   string `json:"status"`
}

// UpdateRoomStatusRequest sets a room's registry status.
type UpdateRoomStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

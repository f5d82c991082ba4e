package dto

type DragRequest struct {
	Over bool `json:"over"`
}

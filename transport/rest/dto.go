package rest

type playerRequest struct {
	PlayerName string `json:"player_name"`
}

type startRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

type moveRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Cell          *int   `json:"cell" binding:"required"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

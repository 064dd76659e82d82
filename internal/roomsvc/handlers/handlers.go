package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/roomsvc/service"
)

type Handler struct {
	svc       *service.RoomService
	tokenAuth *jwtauth.JWTAuth
}

func NewHandler(svc *service.RoomService) *Handler {
	return &Handler{svc: svc}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

type roomRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

type callRequest struct {
	Number int `json:"number"`
}

type ticketRequest struct {
	Count int `json:"count"`
}

// joinedRoom is the create/join response: the room plus a token the client
// presents on every subsequent room operation.
type joinedRoom struct {
	Room  *models.Room `json:"room"`
	Token string       `json:"token"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "room service is running at port " + os.Getenv("SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, err, http.StatusBadRequest)
		return
	}

	room, err := h.svc.CreateRoom(r.Context(), req.RoomID, req.Username)
	if err != nil {
		h.failMapped(w, err)
		return
	}

	h.respondJoined(w, room, req.Username)
}

func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, err, http.StatusBadRequest)
		return
	}

	room, err := h.svc.JoinRoom(r.Context(), chi.URLParam(r, "roomID"), req.Username)
	if err != nil {
		h.failMapped(w, err)
		return
	}

	h.respondJoined(w, room, req.Username)
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomForToken(r)
	if err != nil {
		h.failMapped(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "room", Code: 200, Data: room})
}

func (h *Handler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID, playerID, err := h.claims(r)
	if err != nil {
		h.fail(w, err, http.StatusUnauthorized)
		return
	}

	if err := h.svc.LeaveRoom(r.Context(), roomID, playerID); err != nil &&
		!errors.Is(err, models.ErrRoomNotFound) {
		h.failMapped(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "left room", Code: 200})
}

func (h *Handler) CallNumberHandler(w http.ResponseWriter, r *http.Request) {
	roomID, _, err := h.claims(r)
	if err != nil {
		h.fail(w, err, http.StatusUnauthorized)
		return
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, err, http.StatusBadRequest)
		return
	}

	room, err := h.svc.CallNumber(r.Context(), roomID, req.Number)
	if err != nil {
		h.failMapped(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "number called", Code: 200, Data: room.GameState})
}

func (h *Handler) CallNextHandler(w http.ResponseWriter, r *http.Request) {
	roomID, _, err := h.claims(r)
	if err != nil {
		h.fail(w, err, http.StatusUnauthorized)
		return
	}

	room, n, err := h.svc.CallNext(r.Context(), roomID)
	if err != nil {
		h.failMapped(w, err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "number called",
		Code:    200,
		Data: map[string]interface{}{
			"number":     n,
			"game_state": room.GameState,
		},
	})
}

func (h *Handler) ResetGameHandler(w http.ResponseWriter, r *http.Request) {
	roomID, _, err := h.claims(r)
	if err != nil {
		h.fail(w, err, http.StatusUnauthorized)
		return
	}

	room, err := h.svc.ResetGame(r.Context(), roomID)
	if err != nil {
		h.failMapped(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "game reset", Code: 200, Data: room.GameState})
}

func (h *Handler) GenerateTicketsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, playerID, err := h.claims(r)
	if err != nil {
		h.fail(w, err, http.StatusUnauthorized)
		return
	}

	var req ticketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, err, http.StatusBadRequest)
		return
	}

	tickets, err := h.svc.GenerateTickets(r.Context(), roomID, playerID, req.Count)
	if err != nil {
		h.failMapped(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "tickets generated", Code: 200, Data: tickets})
}

func (h *Handler) respondJoined(w http.ResponseWriter, room *models.Room, username string) {
	token, err := h.issueToken(room.ID, username)
	if err != nil {
		h.fail(w, err, http.StatusInternalServerError)
		return
	}
	h.CreateResponse(w, Response{
		Message: "ok",
		Code:    200,
		Data:    joinedRoom{Room: room, Token: token},
	})
}

func (h *Handler) roomForToken(r *http.Request) (*models.Room, error) {
	roomID, _, err := h.claims(r)
	if err != nil {
		return nil, err
	}
	return h.svc.GetRoom(r.Context(), roomID)
}

// claims extracts the room binding carried by the JWT.
func (h *Handler) claims(r *http.Request) (roomID, playerID string, err error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", "", err
	}
	roomID, _ = claims["room_id"].(string)
	playerID, _ = claims["player_id"].(string)
	if roomID == "" || playerID == "" {
		return "", "", models.ErrRoomNotFound
	}
	return roomID, playerID, nil
}

func (h *Handler) issueToken(roomID, playerID string) (string, error) {
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"room_id":   roomID,
		"player_id": playerID,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
	})
	return tokenString, err
}

func (h *Handler) failMapped(w http.ResponseWriter, err error) {
	h.fail(w, err, statusFor(err))
}

func (h *Handler) fail(w http.ResponseWriter, err error, code int) {
	h.CreateResponse(w, Response{Code: code, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrRoomFull),
		errors.Is(err, models.ErrNumberCalled),
		errors.Is(err, models.ErrNoNumbersLeft),
		errors.Is(err, models.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidName), errors.Is(err, models.ErrInvalidRoomID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

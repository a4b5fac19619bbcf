package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GingerImpasto/orangechat/internal/server/middleware"
	"github.com/GingerImpasto/orangechat/internal/store"
)

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *App) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := a.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		a.logger.Error("signup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := a.store.FindUserByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := a.issuer.Issue(user.ID)
	if err != nil {
		a.logger.Error("token issuance failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (a *App) handleListFriends(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())

	ids, err := a.store.FriendIDs(reqMeta.UserID)
	if err != nil {
		a.logger.Error("friend list failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch friends list")
		return
	}

	friends := make([]userResponse, 0, len(ids))
	for _, id := range ids {
		friend, err := a.store.FindUserByID(id)
		if err != nil {
			continue
		}
		friends = append(friends, toUserResponse(friend))
	}
	writeJSON(w, http.StatusOK, friends)
}

func (a *App) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())

	var req struct {
		FriendID string `json:"friendId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FriendID == "" {
		writeError(w, http.StatusBadRequest, "friendId is required")
		return
	}
	if req.FriendID == reqMeta.UserID {
		writeError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
		return
	}
	if _, err := a.store.FindUserByID(req.FriendID); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := a.store.AddFriendship(reqMeta.UserID, req.FriendID); err != nil {
		a.logger.Error("add friend failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to add friend")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *App) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())

	friendID := r.PathValue("friendId")
	if err := a.store.RemoveFriendship(reqMeta.UserID, friendID); err != nil {
		a.logger.Error("remove friend failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to remove friend")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleConversation(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())

	msgs, err := a.store.Conversation(reqMeta.UserID, r.PathValue("peerId"))
	if err != nil {
		a.logger.Error("conversation fetch failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleSaveMessage persists a relayed message. Durability is this
// layer's job; the hub itself never stores anything.
func (a *App) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())

	var req struct {
		Content    string `json:"content"`
		ReceiverID string `json:"receiverId"`
		Status     string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" || req.ReceiverID == "" {
		writeError(w, http.StatusBadRequest, "content and receiverId are required")
		return
	}

	msg := &store.Message{
		SenderID:   reqMeta.UserID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Status:     req.Status,
		CreatedAt:  time.Now(),
	}
	if err := a.store.SaveMessage(msg); err != nil {
		a.logger.Error("save message failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

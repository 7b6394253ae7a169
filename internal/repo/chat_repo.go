package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docchat/internal/model"
	appErr "docchat/internal/pkg/errors"
)

type ChatRepo struct {
	db *sqlx.DB
}

func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) CreateSession(ctx context.Context, title string) (*model.ChatSession, error) {
	now := time.Now().Unix()
	session := &model.ChatSession{
		ID:    uuid.NewString(),
		Title: title,
		Ctime: now,
		Mtime: now,
	}
	data := map[string]interface{}{
		"id":    session.ID,
		"title": session.Title,
		"ctime": session.Ctime,
		"mtime": session.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_sessions", []map[string]interface{}{data})
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(sqlStr), args...); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *ChatRepo) GetSession(ctx context.Context, id string) (*model.ChatSession, error) {
	sqlStr, args, err := builder.BuildSelect("chat_sessions",
		map[string]interface{}{"id": id},
		[]string{"id", "title", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	var session model.ChatSession
	if err := r.db.GetContext(ctx, &session, r.db.Rebind(sqlStr), args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *ChatRepo) ListSessions(ctx context.Context, limit, offset int) ([]model.ChatSession, error) {
	where := map[string]interface{}{"_orderby": "mtime desc"}
	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		where["_limit"] = []uint{uint(offset), uint(limit)}
	}
	sqlStr, args, err := builder.BuildSelect("chat_sessions", where,
		[]string{"id", "title", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sessions := make([]model.ChatSession, 0)
	if err := r.db.SelectContext(ctx, &sessions, r.db.Rebind(sqlStr), args...); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *ChatRepo) TouchSession(ctx context.Context, id string, title string) error {
	update := map[string]interface{}{"mtime": time.Now().Unix()}
	if title != "" {
		update["title"] = title
	}
	sqlStr, args, err := builder.BuildUpdate("chat_sessions", map[string]interface{}{"id": id}, update)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(sqlStr), args...)
	return err
}

func (r *ChatRepo) DeleteSession(ctx context.Context, id string) (bool, error) {
	sqlStr, args, err := builder.BuildDelete("chat_sessions", map[string]interface{}{"id": id})
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(sqlStr), args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ChatRepo) AddMessage(ctx context.Context, msg *model.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Ctime == 0 {
		msg.Ctime = time.Now().Unix()
	}
	data := map[string]interface{}{
		"id":         msg.ID,
		"session_id": msg.SessionID,
		"role":       msg.Role,
		"content":    msg.Content,
		"sources":    msg.Sources,
		"model":      msg.Model,
		"provider":   msg.Provider,
		"ctime":      msg.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_messages", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(sqlStr), args...)
	return err
}

func (r *ChatRepo) ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	sqlStr, args, err := builder.BuildSelect("chat_messages",
		map[string]interface{}{"session_id": sessionID, "_orderby": "ctime asc"},
		[]string{"id", "session_id", "role", "content", "sources", "model", "provider", "ctime"})
	if err != nil {
		return nil, err
	}
	messages := make([]model.ChatMessage, 0)
	if err := r.db.SelectContext(ctx, &messages, r.db.Rebind(sqlStr), args...); err != nil {
		return nil, err
	}
	return messages, nil
}

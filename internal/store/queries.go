package store

import (
	"context"
	"encoding/json"
	"time"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type Document struct {
	ID        string
	Name      string
	OwnerID   string
	Width     int
	Height    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	UserID      string
	Role        string
	DisplayName string
	Email       string
}

type Snapshot struct {
	ID         string
	DocumentID string
	Version    int64
	ServerSeq  int64
	Elements   json.RawMessage
	CreatedAt  time.Time
}

const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, password, display_name, created_at`,
		u.ID, u.Email, u.Password, u.DisplayName)
	var out User
	err := row.Scan(&out.ID, &out.Email, &out.Password, &out.DisplayName, &out.CreatedAt)
	return out, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`,
		email)
	var out User
	err := row.Scan(&out.ID, &out.Email, &out.Password, &out.DisplayName, &out.CreatedAt)
	return out, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`,
		id)
	var out User
	err := row.Scan(&out.ID, &out.Email, &out.Password, &out.DisplayName, &out.CreatedAt)
	return out, err
}

func (s *Store) CreateDocument(ctx context.Context, d Document) (Document, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO documents (id, name, owner_id, width, height)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, owner_id, width, height, created_at, updated_at`,
		d.ID, d.Name, d.OwnerID, d.Width, d.Height)
	var out Document
	err := row.Scan(&out.ID, &out.Name, &out.OwnerID, &out.Width, &out.Height, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, width, height, created_at, updated_at
		 FROM documents WHERE id = $1`, id)
	var out Document
	err := row.Scan(&out.ID, &out.Name, &out.OwnerID, &out.Width, &out.Height, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

func (s *Store) ListDocumentsForUser(ctx context.Context, userID string) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.name, d.owner_id, d.width, d.height, d.created_at, d.updated_at
		 FROM documents d
		 JOIN document_members m ON m.document_id = d.id
		 WHERE m.user_id = $1
		 ORDER BY d.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.OwnerID, &d.Width, &d.Height, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) RenameDocument(ctx context.Context, id, name string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE documents SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	return err
}

// TouchDocument bumps updated_at after a snapshot save.
func (s *Store) TouchDocument(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE documents SET updated_at = now() WHERE id = $1`, id)
	return err
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

func (s *Store) AddMember(ctx context.Context, documentID, userID, role string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO document_members (document_id, user_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (document_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		documentID, userID, role)
	return err
}

func (s *Store) GetMember(ctx context.Context, documentID, userID string) (Member, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT m.user_id, m.role, u.display_name, u.email
		 FROM document_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.document_id = $1 AND m.user_id = $2`, documentID, userID)
	var out Member
	err := row.Scan(&out.UserID, &out.Role, &out.DisplayName, &out.Email)
	return out, err
}

func (s *Store) ListMembers(ctx context.Context, documentID string) ([]Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.user_id, m.role, u.display_name, u.email
		 FROM document_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.document_id = $1
		 ORDER BY u.display_name`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Role, &m.DisplayName, &m.Email); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) RemoveMember(ctx context.Context, documentID, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM document_members WHERE document_id = $1 AND user_id = $2`,
		documentID, userID)
	return err
}

// CreateSnapshot appends the next snapshot version for a document.
func (s *Store) CreateSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO snapshots (id, document_id, version, server_seq, elements)
		 VALUES ($1, $2,
		         (SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE document_id = $2),
		         $3, $4)
		 RETURNING id, document_id, version, server_seq, elements, created_at`,
		snap.ID, snap.DocumentID, snap.ServerSeq, snap.Elements)
	var out Snapshot
	err := row.Scan(&out.ID, &out.DocumentID, &out.Version, &out.ServerSeq, &out.Elements, &out.CreatedAt)
	return out, err
}

func (s *Store) GetLatestSnapshot(ctx context.Context, documentID string) (Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, document_id, version, server_seq, elements, created_at
		 FROM snapshots
		 WHERE document_id = $1
		 ORDER BY version DESC
		 LIMIT 1`, documentID)
	var out Snapshot
	err := row.Scan(&out.ID, &out.DocumentID, &out.Version, &out.ServerSeq, &out.Elements, &out.CreatedAt)
	return out, err
}

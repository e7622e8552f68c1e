// Package document is the business layer for document CRUD, membership and
// scene snapshots.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vectorpad/vectorpad/internal/scene"
	"github.com/vectorpad/vectorpad/internal/store"
	"github.com/vectorpad/vectorpad/internal/typeid"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrForbidden = errors.New("forbidden")
	ErrNotMember = errors.New("not a document member")
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Create makes a new document owned by ownerID and seeds version 1 with the
// sample scene.
func (s *Service) Create(ctx context.Context, name, ownerID string, width, height int) (*Document, error) {
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}

	dbDoc, err := s.store.CreateDocument(ctx, store.Document{
		ID:      typeid.NewDocumentID(),
		Name:    name,
		OwnerID: ownerID,
		Width:   width,
		Height:  height,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.store.AddMember(ctx, dbDoc.ID, ownerID, store.RoleOwner); err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	elements, err := json.Marshal(scene.NewSampleStore().Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal initial scene: %w", err)
	}
	_, err = s.store.CreateSnapshot(ctx, store.Snapshot{
		ID:         typeid.NewSnapshotID(),
		DocumentID: dbDoc.ID,
		Elements:   elements,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toDocument(dbDoc), nil
}

func (s *Service) Get(ctx context.Context, documentID, userID string) (*Document, error) {
	if err := s.checkMembership(ctx, documentID, userID); err != nil {
		return nil, err
	}

	dbDoc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return toDocument(dbDoc), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Document, error) {
	dbDocs, err := s.store.ListDocumentsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]Document, len(dbDocs))
	for i, d := range dbDocs {
		docs[i] = *toDocument(d)
	}
	return docs, nil
}

func (s *Service) Rename(ctx context.Context, documentID, userID, name string) error {
	if err := s.requireOwner(ctx, documentID, userID); err != nil {
		return err
	}
	return s.store.RenameDocument(ctx, documentID, name)
}

func (s *Service) Delete(ctx context.Context, documentID, userID string) error {
	if err := s.requireOwner(ctx, documentID, userID); err != nil {
		return err
	}
	return s.store.DeleteDocument(ctx, documentID)
}

func (s *Service) InviteByEmail(ctx context.Context, documentID, ownerID, inviteeEmail string) error {
	if err := s.requireOwner(ctx, documentID, ownerID); err != nil {
		return err
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("user not found")
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.store.AddMember(ctx, documentID, invitee.ID, store.RoleEditor)
}

func (s *Service) ListMembers(ctx context.Context, documentID, userID string) ([]Member, error) {
	if err := s.checkMembership(ctx, documentID, userID); err != nil {
		return nil, err
	}

	dbMembers, err := s.store.ListMembers(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(dbMembers))
	for i, m := range dbMembers {
		members[i] = Member(m)
	}
	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, documentID, ownerID, targetUserID string) error {
	if err := s.requireOwner(ctx, documentID, ownerID); err != nil {
		return err
	}
	if targetUserID == ownerID {
		return errors.New("cannot remove document owner")
	}
	return s.store.RemoveMember(ctx, documentID, targetUserID)
}

// GetLatestScene returns the elements of the newest snapshot.
func (s *Service) GetLatestScene(ctx context.Context, documentID, userID string) (json.RawMessage, error) {
	if err := s.checkMembership(ctx, documentID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.GetLatestSnapshot(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Elements, nil
}

// LoadForSession fetches document metadata plus the latest scene for a
// collaboration room.
func (s *Service) LoadForSession(ctx context.Context, documentID string) (scene.Document, []*scene.Element, error) {
	dbDoc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scene.Document{}, nil, ErrNotFound
		}
		return scene.Document{}, nil, fmt.Errorf("get document: %w", err)
	}

	snap, err := s.store.GetLatestSnapshot(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scene.Document{}, nil, ErrNotFound
		}
		return scene.Document{}, nil, fmt.Errorf("get snapshot: %w", err)
	}

	var elements []*scene.Element
	if err := json.Unmarshal(snap.Elements, &elements); err != nil {
		return scene.Document{}, nil, fmt.Errorf("decode scene: %w", err)
	}

	doc := scene.Document{
		Name:   dbDoc.Name,
		Width:  dbDoc.Width,
		Height: dbDoc.Height,
	}
	return doc, elements, nil
}

// SaveSession persists a room's scene as the next snapshot version.
func (s *Service) SaveSession(ctx context.Context, documentID string, elements json.RawMessage, serverSeq int64) error {
	_, err := s.store.CreateSnapshot(ctx, store.Snapshot{
		ID:         typeid.NewSnapshotID(),
		DocumentID: documentID,
		ServerSeq:  serverSeq,
		Elements:   elements,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return s.store.TouchDocument(ctx, documentID)
}

func (s *Service) requireOwner(ctx context.Context, documentID, userID string) error {
	dbDoc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get document: %w", err)
	}
	if dbDoc.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) checkMembership(ctx context.Context, documentID, userID string) error {
	_, err := s.store.GetMember(ctx, documentID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func toDocument(d store.Document) *Document {
	return &Document{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		Width:     d.Width,
		Height:    d.Height,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

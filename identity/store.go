package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound    = errors.New("identity not found")
	ErrInvalidName = errors.New("identity name is required")
	ErrNoImage     = errors.New("identity image is required")
)

// Identity is a saved selfie the user can generate with again.
type Identity struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Image     string    `gorm:"type:text;not null" json:"image"`
	IsPrimary bool      `gorm:"not null;default:false" json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store keeps the user's identities. At most one identity is primary, and once any exist one of them is.
type Store interface {
	List(ctx context.Context) ([]Identity, error)
	Add(ctx context.Context, name, image string) (*Identity, error)
	Rename(ctx context.Context, id, name string) (*Identity, error)
	SetPrimary(ctx context.Context, id string) (*Identity, error)
	Delete(ctx context.Context, id string) error
}

type GormStore struct {
	db *gorm.DB
}

// Open creates (or reuses) the SQLite file at path.
func Open(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewGormStore(db)
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Identity{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) List(ctx context.Context) ([]Identity, error) {
	var identities []Identity
	err := s.db.WithContext(ctx).Order("is_primary desc").Order("created_at asc").Find(&identities).Error
	return identities, err
}

func (s *GormStore) Add(ctx context.Context, name, image string) (*Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if strings.TrimSpace(image) == "" {
		return nil, ErrNoImage
	}
	identity := &Identity{ID: uuid.NewString(), Name: name, Image: image}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Identity{}).Count(&count).Error; err != nil {
			return err
		}
		identity.IsPrimary = count == 0
		return tx.Create(identity).Error
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *GormStore) Rename(ctx context.Context, id, name string) (*Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	identity, err := s.find(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(identity).Update("name", name).Error; err != nil {
		return nil, err
	}
	identity.Name = name
	return identity, nil
}

func (s *GormStore) SetPrimary(ctx context.Context, id string) (*Identity, error) {
	var identity *Identity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if identity, err = s.find(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&Identity{}).Where("id <> ?", id).Update("is_primary", false).Error; err != nil {
			return err
		}
		if err := tx.Model(identity).Update("is_primary", true).Error; err != nil {
			return err
		}
		identity.IsPrimary = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Delete removes id. Deleting the primary identity promotes the oldest remaining one.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.find(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(identity).Error; err != nil {
			return err
		}
		if !identity.IsPrimary {
			return nil
		}
		var oldest Identity
		err = tx.Order("created_at asc").First(&oldest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&oldest).Update("is_primary", true).Error
	})
}

func (s *GormStore) find(tx *gorm.DB, id string) (*Identity, error) {
	var identity Identity
	err := tx.Where("id = ?", id).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

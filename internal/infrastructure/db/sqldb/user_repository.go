package sqldb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

type userRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	Firstname   string    `gorm:"size:255"`
	Lastname    string    `gorm:"size:255"`
	Email       string    `gorm:"size:255"`
	Profession  string    `gorm:"size:255;index"`
	DateCreated time.Time `gorm:"column:datecreated;type:date;index"`
	Country     string    `gorm:"size:255"`
	City        string    `gorm:"size:255"`
}

func (userRow) TableName() string { return "users" }

// columns maps sortable field names to column names.
var columns = map[string]string{
	domain.FieldID:          "id",
	domain.FieldFirstname:   "firstname",
	domain.FieldLastname:    "lastname",
	domain.FieldEmail:       "email",
	domain.FieldProfession:  "profession",
	domain.FieldDateCreated: "datecreated",
	domain.FieldCountry:     "country",
	domain.FieldCity:        "city",
}

func toRow(u *domain.User) userRow {
	return userRow{
		ID:          u.ID,
		Firstname:   u.Firstname,
		Lastname:    u.Lastname,
		Email:       u.Email,
		Profession:  u.Profession,
		DateCreated: u.DateCreated.UTC(),
		Country:     u.Country,
		City:        u.City,
	}
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:          r.ID,
		Firstname:   r.Firstname,
		Lastname:    r.Lastname,
		Email:       r.Email,
		Profession:  r.Profession,
		DateCreated: r.DateCreated.UTC(),
		Country:     r.Country,
		City:        r.City,
	}
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	filters := func(q *gorm.DB) *gorm.DB {
		if !f.StartDate.IsZero() {
			q = q.Where("datecreated >= ?", f.StartDate.UTC())
		}
		if !f.EndDate.IsZero() {
			q = q.Where("datecreated <= ?", f.EndDate.UTC())
		}
		if f.Profession != "" {
			q = q.Where("profession = ?", f.Profession)
		}
		return q
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&userRow{}).Scopes(filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := columns[f.SortBy]
	if !ok {
		col = "id"
	}
	q := r.db.WithContext(ctx).Scopes(filters).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: f.Descending})
	if col != "id" {
		q = q.Order("id")
	}

	var rows []userRow
	if err := q.Offset(f.Offset).Limit(f.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, total, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	row := toRow(u)
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrUserExists
	}
	return err
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userRow
		err := tx.Select("id").First(&existing, u.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		row := toRow(u)
		return tx.Save(&row).Error
	})
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&userRow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, w ports.UserWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, txWriter{tx: tx})
	})
}

func (r *UserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type txWriter struct {
	tx *gorm.DB
}

// Save upserts on the primary key.
func (w txWriter) Save(ctx context.Context, u *domain.User) error {
	row := toRow(u)
	return w.tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&row).Error
}

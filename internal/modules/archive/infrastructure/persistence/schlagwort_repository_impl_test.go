package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"WSpeicher/internal/modules/archive/domain/entity"
	"WSpeicher/pkg/xerr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.Dokument{},
		&entity.Schlagwort{},
		&entity.Synonym{},
		&entity.Feld{},
		&entity.DokumentSchlagwort{},
	))
	return db
}

func seedSchlagwort(t *testing.T, db *gorm.DB, name string) *entity.Schlagwort {
	t.Helper()
	s := &entity.Schlagwort{
		Schlagwort:     name,
		Geschaeftsfeld: "Bausparen",
		Kategorie:      "Vertrag",
		DsgvoRelevant:  true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func seedDokument(t *testing.T, db *gorm.DB, docID string) *entity.Dokument {
	t.Helper()
	d := &entity.Dokument{
		DocID:       docID,
		OrigName:    docID + ".pdf",
		Status:      entity.DokumentStatusPending,
		Operator:    "test",
		ProcessedAt: time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func TestResolveSchlagwortExactMatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	seeded := seedSchlagwort(t, db, "Name")

	s, created, err := repo.ResolveOrCreateSchlagwort(ctx, "Name", true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, seeded.Id, s.Id)
}

func TestResolveSchlagwortViaSynonym(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	seeded := seedSchlagwort(t, db, "Nachname")
	require.NoError(t, db.Create(&entity.Synonym{
		SchlagwortId: seeded.Id,
		Synonym:      "Familienname",
		CreatedAt:    time.Now(),
	}).Error)

	s, created, err := repo.ResolveOrCreateSchlagwort(ctx, "Familienname", true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, seeded.Id, s.Id)
}

func TestResolveSchlagwortStrictMiss(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)

	_, _, err := repo.ResolveOrCreateSchlagwort(context.Background(), "Unbekannt", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerr.ErrKeywordResolution))
}

func TestResolveSchlagwortLenientCreatesWithDefaults(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	s, created, err := repo.ResolveOrCreateSchlagwort(ctx, "NeuesFeld", false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "empty", s.Geschaeftsfeld)
	assert.Equal(t, "empty", s.Kategorie)
	assert.True(t, s.DsgvoRelevant)

	// 二次解析幂等命中既有行
	again, created, err := repo.ResolveOrCreateSchlagwort(ctx, "NeuesFeld", false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, s.Id, again.Id)
}

func TestResolveFeldFirstWriteWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	s1 := seedSchlagwort(t, db, "Eins")
	s2 := seedSchlagwort(t, db, "Zwei")

	f, created, err := repo.ResolveOrCreateFeld(ctx, "Vorname", "Tx", s1.Id)
	require.NoError(t, err)
	assert.True(t, created)

	// 同名字段再次解析：沿用既有行，不覆盖类型与关联
	again, created, err := repo.ResolveOrCreateFeld(ctx, "Vorname", "Btn", s2.Id)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.Id, again.Id)
	assert.Equal(t, "Tx", again.Feldtyp)
	assert.Equal(t, s1.Id, again.SchlagwortId)
}

func TestLinkDokumentSchlagwortIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	dok := seedDokument(t, db, "doc_2024-01-01-00-00-00")
	s := seedSchlagwort(t, db, "IBAN")

	linked, err := repo.LinkDokumentSchlagwort(ctx, dok.Id, s.Id)
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = repo.LinkDokumentSchlagwort(ctx, dok.Id, s.Id)
	require.NoError(t, err)
	assert.False(t, linked)

	var count int64
	require.NoError(t, db.Model(&entity.DokumentSchlagwort{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCommitDokumentSuccess(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	seedSchlagwort(t, db, "Vorname")
	dok := seedDokument(t, db, "antrag_2024-01-01-00-00-00")

	fields := []entity.FormField{
		{Name: "Vorname", Typ: "Tx"},
		{Name: "Nachname", Typ: "Tx"},
		{Name: "Geburtsdatum", Typ: "Tx"},
	}
	result, err := repo.CommitDokument(ctx, dok, fields, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.NewSchlagworte) // Vorname 已存在
	assert.Equal(t, 3, result.NewFelder)
	assert.Equal(t, 3, result.Links)
	assert.Equal(t, entity.DokumentStatusArchived, dok.Status)

	var stored entity.Dokument
	require.NoError(t, db.Where("id = ?", dok.Id).Take(&stored).Error)
	assert.Equal(t, entity.DokumentStatusArchived, stored.Status)
}

func TestCommitDokumentRollbackOnStrictFailure(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	seedSchlagwort(t, db, "Vorname")
	dok := seedDokument(t, db, "antrag_2024-02-02-00-00-00")

	// 第二个字段在严格模式下无法解析，整个事务必须回滚
	fields := []entity.FormField{
		{Name: "Vorname", Typ: "Tx"},
		{Name: "VölligUnbekannt", Typ: "Tx"},
	}
	_, err := repo.CommitDokument(ctx, dok, fields, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerr.ErrKeywordResolution))

	// 没有任何部分写入
	var feldCount, linkCount int64
	require.NoError(t, db.Model(&entity.Feld{}).Count(&feldCount).Error)
	require.NoError(t, db.Model(&entity.DokumentSchlagwort{}).Count(&linkCount).Error)
	assert.EqualValues(t, 0, feldCount)
	assert.EqualValues(t, 0, linkCount)

	var stored entity.Dokument
	require.NoError(t, db.Where("id = ?", dok.Id).Take(&stored).Error)
	assert.Equal(t, entity.DokumentStatusPending, stored.Status)
}

func TestListSchlagwortNamesOrdered(t *testing.T) {
	db := newTestDB(t)
	repo := NewSchlagwortRepository(db)
	ctx := context.Background()

	seedSchlagwort(t, db, "Zuteilung")
	seedSchlagwort(t, db, "Anrede")
	seedSchlagwort(t, db, "IBAN")

	names, err := repo.ListSchlagwortNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anrede", "IBAN", "Zuteilung"}, names)
}

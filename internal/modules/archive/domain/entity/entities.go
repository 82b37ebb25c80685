package entity

import (
	"time"
)

// 文档处理状态
const (
	DokumentStatusPending  = "pending"  // 已上传，等待入库
	DokumentStatusArchived = "archived" // 全部字段解析成功，文件已归档
	DokumentStatusError    = "error"    // 入库失败，文件留在暂存区
)

// Dokument 一次上传的文档。DocID 由原始文件名 + 入库时间戳生成，
// 归档文件按 DocID 命名落盘。
type Dokument struct {
	Id          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DocID       string    `gorm:"column:doc_id;type:varchar(160);not null;uniqueIndex:uniq_dokument_doc_id"`
	OrigName    string    `gorm:"column:orig_name;type:varchar(255);not null"`
	Status      string    `gorm:"column:status;type:varchar(10);not null;default:pending"`
	Reason      string    `gorm:"column:reason;type:varchar(255)"`
	Operator    string    `gorm:"column:operator;type:varchar(64);not null"`
	ProcessedAt time.Time `gorm:"column:processed_at;type:datetime;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (Dokument) TableName() string { return "dokumente" }

// Schlagwort 规范化的业务关键词，文档表单字段都归一到它
type Schlagwort struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Schlagwort     string    `gorm:"column:schlagwort;type:varchar(255);not null;uniqueIndex:uniq_schlagwort_name"`
	Geschaeftsfeld string    `gorm:"column:geschaeftsfeld;type:varchar(255);not null;default:empty"`
	Kategorie      string    `gorm:"column:kategorie;type:varchar(255);not null;default:empty"`
	DsgvoRelevant  bool      `gorm:"column:dsgvo_relevant;not null;default:1"`
	CreatedAt      time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (Schlagwort) TableName() string { return "schlagworte" }

// Synonym 关键词的别名，多对一指向所属 Schlagwort
type Synonym struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SchlagwortId int64     `gorm:"column:schlagwort_id;not null;index:idx_synonym_schlagwort"`
	Synonym      string    `gorm:"column:synonym;type:varchar(255);not null;uniqueIndex:uniq_synonym_name"`
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime;not null"`
}

func (Synonym) TableName() string { return "synonyme" }

// Feld 文档中出现过的表单字段名，映射到唯一的 Schlagwort。
// feldname 全局唯一：重复入库同名字段时沿用既有记录（first-write-wins）。
type Feld struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Feldname     string    `gorm:"column:feldname;type:varchar(255);not null;uniqueIndex:uniq_feld_name"`
	Feldtyp      string    `gorm:"column:feldtyp;type:varchar(64);not null;default:empty"`
	SchlagwortId int64     `gorm:"column:schlagwort_id;not null;index:idx_feld_schlagwort"`
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime;not null"`
}

func (Feld) TableName() string { return "felder" }

// DokumentSchlagwort 文档与关键词的多对多关联，每次入库写入
type DokumentSchlagwort struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DokumentId   int64     `gorm:"column:dokument_id;not null;uniqueIndex:uniq_dokument_schlagwort"`
	SchlagwortId int64     `gorm:"column:schlagwort_id;not null;uniqueIndex:uniq_dokument_schlagwort"`
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime;not null"`
}

func (DokumentSchlagwort) TableName() string { return "dokument_schlagworte" }

// FormField 从 PDF AcroForm 中提取出来的字段名与类型（不落库）
type FormField struct {
	Name string
	Typ  string
}

package entity

import "strconv"

// Kunde 客户主数据，聊天会话按其 id 建立
type Kunde struct {
	Id                   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Anrede               string `gorm:"column:anrede;type:varchar(16);not null;default:''"`
	Vorname              string `gorm:"column:vorname;type:varchar(128);not null;default:''"`
	Name                 string `gorm:"column:name;type:varchar(128);not null;default:''"`
	Geburtsdatum         string `gorm:"column:geburtsdatum;type:varchar(32)"`
	Geburtsort           string `gorm:"column:geburtsort;type:varchar(128)"`
	Staatsangehoerigkeit string `gorm:"column:staatsangehoerigkeit;type:varchar(64)"`
	Telefonnummer        string `gorm:"column:telefonnummer;type:varchar(32)"`
	Email                string `gorm:"column:email;type:varchar(255)"`
	Familienstand        *int   `gorm:"column:familienstand"`
	Beruf                string `gorm:"column:beruf;type:varchar(128)"`
	Arbeitgeber          string `gorm:"column:arbeitgeber;type:varchar(128)"`
	AdresseId            *int64 `gorm:"column:adresse_id"`
}

func (Kunde) TableName() string { return "kunden" }

// Adresse 客户地址
type Adresse struct {
	Id               int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Strasse          string `gorm:"column:strasse;type:varchar(255);not null;default:''"`
	Hausnummer       int    `gorm:"column:hausnummer;not null;default:1"`
	HausnummerZusatz string `gorm:"column:hausnummer_zusatz;type:varchar(16);not null;default:''"`
	PLZ              int    `gorm:"column:plz;not null"`
	Ort              string `gorm:"column:ort;type:varchar(128);not null;default:''"`
}

func (Adresse) TableName() string { return "adressen" }

// 事实值类型标签
const (
	FactString = "string"
	FactNumber = "number"
	FactBool   = "bool"
	FactNull   = "null"
)

// FactValue 档案事实的标量值，带类型标签。只允许标量，不嵌套。
type FactValue struct {
	Kind string  `json:"kind"`
	Str  string  `json:"str,omitempty"`
	Num  float64 `json:"num,omitempty"`
	Bool bool    `json:"bool,omitempty"`
}

// Fact 档案中的一条 (键, 值) 事实
type Fact struct {
	Key   string    `json:"key"`
	Value FactValue `json:"value"`
}

func StringFact(key, v string) Fact {
	if v == "" {
		return Fact{Key: key, Value: FactValue{Kind: FactNull}}
	}
	return Fact{Key: key, Value: FactValue{Kind: FactString, Str: v}}
}

func NumberFact(key string, v float64) Fact {
	return Fact{Key: key, Value: FactValue{Kind: FactNumber, Num: v}}
}

func (v FactValue) String() string {
	switch v.Kind {
	case FactString:
		return v.Str
	case FactNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case FactBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "unbekannt"
	}
}

// Facts 把客户档案压平成固定顺序的事实列表，供对话前导语与生成提示使用
func (k *Kunde) Facts(adresse *Adresse) []Fact {
	facts := []Fact{
		StringFact("Anrede", k.Anrede),
		StringFact("Vorname", k.Vorname),
		StringFact("Name", k.Name),
		StringFact("Geburtsdatum", k.Geburtsdatum),
		StringFact("Geburtsort", k.Geburtsort),
		StringFact("Staatsangehoerigkeit", k.Staatsangehoerigkeit),
		StringFact("Telefonnummer", k.Telefonnummer),
		StringFact("Email", k.Email),
	}
	if k.Familienstand != nil {
		facts = append(facts, NumberFact("Familienstand", float64(*k.Familienstand)))
	} else {
		facts = append(facts, Fact{Key: "Familienstand", Value: FactValue{Kind: FactNull}})
	}
	facts = append(facts,
		StringFact("Beruf", k.Beruf),
		StringFact("Arbeitgeber", k.Arbeitgeber),
	)
	if adresse != nil {
		facts = append(facts,
			StringFact("Strasse", adresse.Strasse),
			NumberFact("Hausnummer", float64(adresse.Hausnummer)),
			StringFact("HausnummerZusatz", adresse.HausnummerZusatz),
			NumberFact("PLZ", float64(adresse.PLZ)),
			StringFact("Ort", adresse.Ort),
		)
	}
	return facts
}

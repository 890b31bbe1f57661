package domain

// Sex 病人性别
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// DefaultPlayFrequencyMonths 两个监测周期之间的默认间隔（月）
const DefaultPlayFrequencyMonths = 6

// RequiredCycleDays 一个监测周期需要完成的天数
const RequiredCycleDays = 7

// Patient 病人档案 + 进度记录
// 文档路径 users/{userId}；字段名与前端 Firestore 兼容。
type Patient struct {
	ID            string `json:"-"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	DateOfBirth   string `json:"dob"` // YYYY-MM-DD
	Sex           Sex    `json:"sex"`
	EnrolmentDate string `json:"enrolmentDate"`

	PlayCount int `json:"playCount"`
	// CompletedDays 已完成天集合（ISO 日期，顺序无关、幂等追加）
	CompletedDays []string `json:"completedDays"`
	// NumCompletedDays 始终由 CompletedDays 推导，写出时同步
	NumCompletedDays int    `json:"numCompletedDays"`
	FirstPlayed      string `json:"firstPlayed,omitempty"`
	LastPlayed       string `json:"lastPlayed,omitempty"`
	CurrentStreak    int    `json:"currentStreak"`
	// PlayFrequency 监测周期间隔（月），0 视为默认值
	PlayFrequency int `json:"playFrequency,omitempty"`
	// SessionIndex 显式指定的刺激序号（1 起），0 表示按 playCount 取模
	SessionIndex int `json:"sessionIndex,omitempty"`
}

// HasCompletedDay 判断某个 ISO 日期是否已在完成集合中
func (p *Patient) HasCompletedDay(isoDate string) bool {
	for _, d := range p.CompletedDays {
		if d == isoDate {
			return true
		}
	}
	return false
}

// AddCompletedDay 幂等追加完成日，返回是否真正新增
func (p *Patient) AddCompletedDay(isoDate string) bool {
	if p.HasCompletedDay(isoDate) {
		return false
	}
	p.CompletedDays = append(p.CompletedDays, isoDate)
	return true
}

// PlayFrequencyMonths 返回生效的周期间隔
func (p *Patient) PlayFrequencyMonths() int {
	if p.PlayFrequency > 0 {
		return p.PlayFrequency
	}
	return DefaultPlayFrequencyMonths
}

// CycleComplete 当前周期是否已完成（取 >= 语义，见 DESIGN.md）
func (p *Patient) CycleComplete() bool {
	return len(p.CompletedDays) >= RequiredCycleDays
}

// Package schema declares the public representations of the incubator
// resources served by the API. The field sets mirror the upstream provider's
// payloads; Validate enforces the fields the provider guarantees so that
// upstream drift fails loudly instead of being silently coerced.
package schema

// Event 描述孵化器活动条目。
type Event struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Dates          *string `json:"dates"`
	Location       *string `json:"location"`
	Description    *string `json:"description"`
	EventType      *string `json:"event_type"`
	TargetAudience *string `json:"target_audience"`
}

func (e Event) Validate() error {
	if e.ID <= 0 {
		return missingField("event", "id")
	}
	if e.Name == "" {
		return missingField("event", "name")
	}
	return nil
}

// Founder 表示创业公司创始人，只会嵌套在 StartupDetail 中出现。
type Founder struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	StartupID int    `json:"startup_id"`
}

func (f Founder) Validate() error {
	if f.ID <= 0 {
		return missingField("founder", "id")
	}
	if f.Name == "" {
		return missingField("founder", "name")
	}
	if f.StartupID <= 0 {
		return missingField("founder", "startup_id")
	}
	return nil
}

// Investor 描述投资人条目。
type Investor struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	LegalStatus     *string `json:"legal_status"`
	Address         *string `json:"address"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone"`
	CreatedAt       *string `json:"created_at"`
	Description     *string `json:"description"`
	InvestorType    *string `json:"investor_type"`
	InvestmentFocus *string `json:"investment_focus"`
}

func (i Investor) Validate() error {
	if i.ID <= 0 {
		return missingField("investor", "id")
	}
	if i.Name == "" {
		return missingField("investor", "name")
	}
	if i.Email == "" {
		return missingField("investor", "email")
	}
	return nil
}

// NewsSummary 是新闻列表里的条目；详情页在此基础上追加描述。
type NewsSummary struct {
	ID        int     `json:"id"`
	NewsDate  *string `json:"news_date"`
	Location  *string `json:"location"`
	Title     *string `json:"title"`
	Category  *string `json:"category"`
	StartupID *int    `json:"startup_id"`
}

func (n NewsSummary) Validate() error {
	if n.ID <= 0 {
		return missingField("news", "id")
	}
	return nil
}

// NewsDetail 是单条新闻的完整视图。
type NewsDetail struct {
	NewsSummary
	Description string `json:"description"`
}

func (n NewsDetail) Validate() error {
	if err := n.NewsSummary.Validate(); err != nil {
		return err
	}
	if n.Description == "" {
		return missingField("news", "description")
	}
	return nil
}

// Partner 描述合作伙伴条目。
type Partner struct {
	ID              int     `json:"id"`
	Name            *string `json:"name"`
	LegalStatus     *string `json:"legal_status"`
	Address         *string `json:"address"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone"`
	CreatedAt       *string `json:"created_at"`
	Description     string  `json:"description"`
	PartnershipType string  `json:"partnership_type"`
}

func (p Partner) Validate() error {
	if p.ID <= 0 {
		return missingField("partner", "id")
	}
	if p.Email == "" {
		return missingField("partner", "email")
	}
	if p.Description == "" {
		return missingField("partner", "description")
	}
	if p.PartnershipType == "" {
		return missingField("partner", "partnership_type")
	}
	return nil
}

// StartupSummary 是创业公司列表里的条目。
type StartupSummary struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	LegalStatus *string `json:"legal_status"`
	Address     *string `json:"address"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
	Sector      *string `json:"sector"`
	Maturity    *string `json:"maturity"`
}

func (s StartupSummary) Validate() error {
	if s.ID <= 0 {
		return missingField("startup", "id")
	}
	if s.Name == "" {
		return missingField("startup", "name")
	}
	if s.Email == "" {
		return missingField("startup", "email")
	}
	return nil
}

// StartupDetail 是单个创业公司的完整视图，含创始人列表。
type StartupDetail struct {
	StartupSummary
	CreatedAt      *string   `json:"created_at"`
	Description    *string   `json:"description"`
	WebsiteURL     *string   `json:"website_url"`
	SocialMediaURL *string   `json:"social_media_url"`
	ProjectStatus  *string   `json:"project_status"`
	Needs          *string   `json:"needs"`
	Founders       []Founder `json:"founders"`
}

func (s StartupDetail) Validate() error {
	if err := s.StartupSummary.Validate(); err != nil {
		return err
	}
	for _, founder := range s.Founders {
		if err := founder.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// User 描述孵化器账号条目。
type User struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	FounderID  *int   `json:"founder_id"`
	InvestorID *int   `json:"investor_id"`
}

func (u User) Validate() error {
	if u.ID <= 0 {
		return missingField("user", "id")
	}
	if u.Email == "" {
		return missingField("user", "email")
	}
	if u.Name == "" {
		return missingField("user", "name")
	}
	if u.Role == "" {
		return missingField("user", "role")
	}
	return nil
}

package core

// Patches carry only the fields a caller wants to change; nil means keep.
type (
	IncomePatch struct {
		Description *string `json:"description,omitempty"`
		Amount      *Money  `json:"amount,omitempty"`
		Date        *Date   `json:"date,omitempty"`
		Category    *string `json:"category,omitempty"`
	}

	ExpensePatch struct {
		Description *string      `json:"description,omitempty"`
		Amount      *Money       `json:"amount,omitempty"`
		Date        *Date        `json:"date,omitempty"`
		Category    *string      `json:"category,omitempty"`
		Kind        *ExpenseKind `json:"type,omitempty"`
		Details     *string      `json:"details,omitempty"`
	}

	GoalPatch struct {
		Title         *string `json:"title,omitempty"`
		CurrentAmount *Money  `json:"current_amount,omitempty"`
		TargetAmount  *Money  `json:"target_amount,omitempty"`
		Deadline      *string `json:"deadline,omitempty"`
		Description   *string `json:"description,omitempty"`
	}

	ProfilePatch struct {
		DisplayName *string      `json:"display_name,omitempty"`
		ProfileType *ProfileType `json:"profile_type,omitempty"`
	}
)

func (p IncomePatch) Apply(e IncomeEntry) IncomeEntry {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

func (p ExpensePatch) Apply(e ExpenseEntry) ExpenseEntry {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Kind != nil {
		e.Kind = *p.Kind
	}
	if p.Details != nil {
		e.Details = *p.Details
	}
	return e
}

func (p GoalPatch) Apply(g Goal) Goal {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	return g
}

func (p ProfilePatch) Apply(pr Profile) Profile {
	if p.DisplayName != nil {
		pr.DisplayName = *p.DisplayName
	}
	if p.ProfileType != nil {
		pr.ProfileType = *p.ProfileType
	}
	return pr
}

// Validate checks the fields present in the patch against a placeholder
// record, so a partial update is rejected before it reaches the store.
func (p IncomePatch) Validate() error {
	return p.Apply(IncomeEntry{Description: "-", Amount: Money{Cents: 1}, Date: NewDate(2000, 1, 1)}).Validate()
}

func (p ExpensePatch) Validate() error {
	return p.Apply(ExpenseEntry{Description: "-", Amount: Money{Cents: 1}, Date: NewDate(2000, 1, 1), Kind: ExpenseOrdinary}).Validate()
}

func (p GoalPatch) Validate() error {
	return p.Apply(Goal{Title: "-", TargetAmount: Money{Cents: 1}}).Validate()
}

func (p ProfilePatch) Validate() error {
	return p.Apply(Profile{DisplayName: "-", ProfileType: ProfileIndividual}).Validate()
}

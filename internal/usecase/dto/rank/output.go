package rankdto

import "github.com/shopspring/decimal"

type EvaluationResult struct {
	MemberID      string
	CurrentRankID string
	CurrentLevel  int
	EligibleRank  string
	Promoted      bool

	PersonalSales     decimal.Decimal
	GroupSales        decimal.Decimal
	DirectDownline    int
	QualifiedDownline int
}

type BatchEvaluationResult struct {
	Passes    int
	Evaluated int
	Promoted  int
	Results   []EvaluationResult
}

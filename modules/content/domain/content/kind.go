package content

// Kind discriminates the content records that share the target-scope model.
type Kind string

const (
	KindBulletin         Kind = "BULLETIN"
	KindSurvey           Kind = "SURVEY"
	KindVotingItem       Kind = "VOTING_ITEM"
	KindReport           Kind = "REPORT"
	KindSubscriptionPlan Kind = "SUBSCRIPTION_PLAN"
)

func (k Kind) Valid() bool {
	switch k {
	case KindBulletin, KindSurvey, KindVotingItem, KindReport, KindSubscriptionPlan:
		return true
	}
	return false
}

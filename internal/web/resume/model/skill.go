package model

// SkillDetail a skill page, stored at skills/{slug}
type SkillDetail struct {
	Slug            string          `firestore:"slug" json:"slug"`
	Label           string          `firestore:"label" json:"label"`
	Icon            string          `firestore:"icon" json:"icon"`
	Summary         string          `firestore:"summary" json:"summary"`
	Description     string          `firestore:"description" json:"description"`
	RelatedCareers  []RelatedCareer `firestore:"relatedCareers" json:"relatedCareers"`
	KeyAchievements []string        `firestore:"keyAchievements" json:"keyAchievements"`
	Tools           []string        `firestore:"tools" json:"tools"`
}

// RelatedCareer a position where the skill was applied
type RelatedCareer struct {
	Company     string `firestore:"company" json:"company"`
	Period      string `firestore:"period" json:"period"`
	Role        string `firestore:"role" json:"role"`
	Description string `firestore:"description" json:"description"`
}

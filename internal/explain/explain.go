package explain

import (
	"github.com/TobiSchelling/MisinfoDetector/internal/keywords"
	"github.com/TobiSchelling/MisinfoDetector/internal/model"
)

// Explanation is the verification source and prose shown alongside a verdict.
type Explanation struct {
	Topic           string `json:"topic"`
	VerificationURL string `json:"verification_url"`
	Text            string `json:"explanation"`
}

// Rule is one entry of the ordered explanation table.
type Rule struct {
	Topic           string
	Match           func(keywords.Set) bool
	VerificationURL string
	Credible        string
	NotCredible     string
}

func (r Rule) explanation(label model.Label) Explanation {
	text := r.NotCredible
	if label.Credible() {
		text = r.Credible
	}
	return Explanation{Topic: r.Topic, VerificationURL: r.VerificationURL, Text: text}
}

func all(terms ...string) func(keywords.Set) bool {
	return func(kw keywords.Set) bool {
		for _, t := range terms {
			if !kw.Contains(t) {
				return false
			}
		}
		return true
	}
}

func approvalOfPresident(kw keywords.Set) bool {
	return kw.Contains("approval") && (kw.Contains("trump") || kw.Contains("obama"))
}

// Rules are evaluated in order; the first match wins.
var Rules = []Rule{
	{
		Topic:           "meditation-heart",
		Match:           all("meditation", "heart"),
		VerificationURL: "https://www.heart.org/en/news/meditation-heart-health-benefits",
		Credible: "This article is classified as true because meditation has been shown to reduce stress, " +
			"lower blood pressure, and improve cardiovascular health, which aligns with research from the " +
			"American Heart Association. Studies have reported reductions in heart disease risk by 15-48%, " +
			"making the claimed reduction plausible.",
		NotCredible: "This article is classified as fake. While meditation can benefit heart health, the specific " +
			"claim may lack credible evidence or exaggerate results. The American Heart Association notes that " +
			"benefits are well-documented, but this article's details could not be verified with known studies.",
	},
	{
		Topic:           "vaccine-efficacy",
		Match:           all("vaccine", "efficacy"),
		VerificationURL: "https://www.who.int/news/vaccine-efficacy-reports",
		Credible: "This article is classified as true. The World Health Organization confirms that vaccines often " +
			"achieve high efficacy rates (e.g., 70-95% for many diseases), and the claimed efficacy aligns with " +
			"documented data from reputable trials.",
		NotCredible: "This article is classified as fake. The claimed vaccine efficacy may be exaggerated or unsupported " +
			"by credible trials. The World Health Organization indicates that efficacy rates should be backed by " +
			"peer-reviewed studies, which this article lacks.",
	},
	{
		Topic:           "cancer-detection",
		Match:           all("cancer", "detection"),
		VerificationURL: "https://www.cancer.org/research/cancer-detection-advances",
		Credible: "This article is classified as true. Advances in cancer detection, such as AI-based tools, have been " +
			"documented by the American Cancer Society, with accuracy rates often exceeding 80%. The article's claims " +
			"are consistent with these findings.",
		NotCredible: "This article is classified as fake. The claimed cancer detection method may lack scientific validation. " +
			"The American Cancer Society notes that new detection methods require rigorous testing, which this article " +
			"does not reference.",
	},
	{
		Topic:           "political-approval",
		Match:           approvalOfPresident,
		VerificationURL: "https://www.factcheck.org/political-approval-ratings",
		Credible: "This article is classified as true. The approval ratings for political figures like Trump or Obama " +
			"are often tracked by reputable fact-checking organizations, and the claimed rating aligns with historical " +
			"data from sources like FactCheck.org.",
		NotCredible: "This article is classified as fake. The claimed approval rating for Trump or Obama does not match " +
			"historical data. FactCheck.org indicates that Trump’s approval rating on Dec. 28, 2017, was around 37% " +
			"according to Gallup polls, significantly lower than the claimed 52% in the article.",
	},
}

// Default applies when no rule in Rules matches.
var Default = Rule{
	Topic:           "general",
	VerificationURL: "https://www.healthnews.com/general-verification",
	Credible: "This article is classified as true, but specific verification is limited. The content aligns with general " +
		"health knowledge, but no direct corroborating study was identified.",
	NotCredible: "This article is classified as fake. The content lacks verifiable details, and no credible health sources " +
		"support the claims made in the article.",
}

// Resolve selects the explanation for the given keywords and label.
func Resolve(kw keywords.Set, label model.Label) Explanation {
	for _, r := range Rules {
		if r.Match(kw) {
			return r.explanation(label)
		}
	}
	return Default.explanation(label)
}

// ForTopic returns the explanation of the rule with the given topic. Unknown
// topics yield the default explanation.
func ForTopic(topic string, label model.Label) Explanation {
	for _, r := range Rules {
		if r.Topic == topic {
			return r.explanation(label)
		}
	}
	return Default.explanation(label)
}

package models

// VendorProposal pairs a vendor identity with its extracted proposal for
// comparison. Slice position is the authoritative vendor index: position i
// renders as "Vendor i+1" in the prompt and maps back from vendorIndex == i
// in the model response.
type VendorProposal struct {
	ProposalID string          `json:"proposalId"`
	VendorID   string          `json:"vendorId"`
	VendorName string          `json:"vendorName"`
	Extract    ProposalExtract `json:"parsed"`
}

// Evaluation is one scored entry of a comparison, with the vendor identity
// resolved locally from the model-assigned index.
type Evaluation struct {
	VendorIndex int      `json:"vendorIndex"`
	Score       float64  `json:"score"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	Summary     string   `json:"summary"`
	ProposalID  string   `json:"proposalId"`
	VendorID    string   `json:"vendorId"`
	VendorName  string   `json:"vendorName"`
}

// ComparisonResult is the ranked, explained recommendation across proposals.
type ComparisonResult struct {
	Evaluations            []Evaluation `json:"evaluations"`
	RecommendedVendorIndex int          `json:"recommendedVendorIndex"`
	RecommendedProposalID  string       `json:"recommendedProposalId"`
	OverallExplanation     string       `json:"overallExplanation"`
}

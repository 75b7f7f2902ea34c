package ai

import (
	"fmt"
	"strings"

	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

// Every prompt instructs the model to emit only a raw JSON object. The
// recovery path in ParseResponse is a safety net, not the contract.
const jsonOnlyInstruction = "IMPORTANT: Respond ONLY with valid JSON. Do not include any explanatory text, markdown formatting, or code blocks. Just the raw JSON object."

// GenerateRfpPrompt renders the instruction that converts a natural language
// procurement request into a structured RFP.
func GenerateRfpPrompt(userText string) string {
	var b strings.Builder

	b.WriteString("You are an expert procurement assistant. Convert the following natural language procurement request into a structured RFP (Request for Proposal) JSON format.\n\n")
	b.WriteString("User's Request:\n")
	b.WriteString(userText)
	b.WriteString("\n\nExtract and structure the following information:\n")
	b.WriteString(`- title: A concise title for this RFP
- description: Detailed description of what needs to be procured
- budgetAmount: Numeric budget amount (if mentioned, otherwise null)
- budgetCurrency: Currency code (e.g., "USD", "EUR") - default to "USD" if not specified
- deliveryDeadline: ISO date string (YYYY-MM-DD) if a specific date is mentioned, or null
- paymentTerms: Payment terms mentioned (e.g., "Net 30", "50% upfront") or null
- warrantyTerms: Warranty requirements mentioned or null
- items: Array of line items, each with:
  - name: Item name
  - quantity: Numeric quantity
  - specs: Specifications/requirements for this item
`)
	b.WriteString("\n" + jsonOnlyInstruction + "\n")
	b.WriteString(`
Example format:
{
  "title": "Office Equipment Procurement",
  "description": "Procurement of laptops and monitors for new office setup",
  "budgetAmount": 50000,
  "budgetCurrency": "USD",
  "deliveryDeadline": "2024-02-15",
  "paymentTerms": "Net 30",
  "warrantyTerms": "1 year warranty required",
  "items": [
    {
      "name": "Laptop",
      "quantity": 20,
      "specs": "16GB RAM, 512GB SSD, Intel i7 or equivalent"
    },
    {
      "name": "Monitor",
      "quantity": 15,
      "specs": "27-inch, 4K resolution"
    }
  ]
}`)

	return b.String()
}

// ExtractProposalPrompt renders the instruction that extracts structured
// proposal data from one vendor email, anchored on the originating RFP.
func ExtractProposalPrompt(rfp *models.Rfp, emailBody string) string {
	var b strings.Builder

	b.WriteString("You are an expert procurement assistant. Parse the following vendor email response and extract structured proposal data.\n\n")
	b.WriteString("Original RFP Requirements:\n")
	b.WriteString(renderRfpSummary(rfp, true))
	b.WriteString("\nVendor Email Response:\n")
	b.WriteString(emailBody)
	b.WriteString("\n\nExtract the following information from the vendor's response:\n")
	b.WriteString(`- items: Array matching the RFP items, each with:
  - name: Item name (should match or be similar to RFP item)
  - quantity: Quantity offered
  - unitPrice: Price per unit
  - totalPrice: Total price for this item (quantity x unitPrice)
  - specs: Any specifications mentioned
- totalPrice: Total price for the entire proposal (numeric)
- currency: Currency code (e.g., "USD", "EUR") - default to "USD" if not clear
- deliveryDays: Number of days until delivery (extract from text, convert dates to days if needed)
- paymentTerms: Payment terms offered (e.g., "Net 30", "50% upfront")
- warranty: Warranty details offered
- notes: Any additional important notes or terms

If information is missing or unclear, use null for optional fields. For required fields like totalPrice, make your best estimate from the email text.
`)
	b.WriteString("\n" + jsonOnlyInstruction + "\n")
	b.WriteString(`
Example format:
{
  "items": [
    {
      "name": "Laptop",
      "quantity": 20,
      "unitPrice": 1200,
      "totalPrice": 24000,
      "specs": "Dell Latitude 7420, 16GB RAM, 512GB SSD"
    }
  ],
  "totalPrice": 29250,
  "currency": "USD",
  "deliveryDays": 21,
  "paymentTerms": "Net 30",
  "warranty": "1 year manufacturer warranty",
  "notes": "Free shipping included, setup assistance available"
}`)

	return b.String()
}

// CompareProposalsPrompt renders the comparison instruction. Positional order
// of proposals is the index contract: entry i renders as "Vendor i+1" and the
// model reports it back as vendorIndex i.
func CompareProposalsPrompt(rfp *models.Rfp, proposals []models.VendorProposal) string {
	var b strings.Builder

	b.WriteString("You are an expert procurement analyst. Analyze and compare the following vendor proposals for an RFP and provide recommendations.\n\n")
	b.WriteString("RFP Requirements:\n")
	b.WriteString(renderRfpSummary(rfp, false))
	b.WriteString("\nVendor Proposals:\n")
	for i, p := range proposals {
		b.WriteString(renderProposalBlock(i, p))
	}
	b.WriteString(`
For each vendor, provide:
- score: A score from 0-100 based on:
  * Price competitiveness (lower is better, but consider value)
  * Delivery timeline (meets deadline = higher score)
  * Payment terms alignment
  * Warranty coverage
  * Overall value proposition
- pros: Array of 2-4 key advantages/strengths
- cons: Array of 2-4 key disadvantages/concerns
- summary: 2-3 sentence summary of this vendor's proposal. IMPORTANT: Use the actual vendor name (e.g., "Tech Solutions Inc.") instead of "Vendor 1" or "Vendor 2" in the summary.

Then provide:
- recommendedVendorIndex: The index (0-based) of the vendor you recommend
- overallExplanation: A 3-5 sentence explanation of why this vendor is recommended, considering all factors. IMPORTANT: Use actual vendor names instead of "Vendor 1", "Vendor 2", etc. in your explanation.
`)
	b.WriteString("\n" + jsonOnlyInstruction + "\n")
	b.WriteString(`
Example format:
{
  "evaluations": [
    {
      "vendorIndex": 0,
      "score": 85,
      "pros": ["Competitive pricing", "Fast delivery", "Good warranty"],
      "cons": ["Payment terms less favorable", "Limited support"],
      "summary": "Strong overall value with competitive pricing and good delivery timeline."
    },
    {
      "vendorIndex": 1,
      "score": 72,
      "pros": ["Excellent warranty", "Flexible payment"],
      "cons": ["Higher price", "Longer delivery time"],
      "summary": "Premium option with better terms but at higher cost."
    }
  ],
  "recommendedVendorIndex": 0,
  "overallExplanation": "Tech Solutions Inc. offers the best balance of price, delivery speed, and value."
}`)

	return b.String()
}

func renderRfpSummary(rfp *models.Rfp, includeItems bool) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("RFP Title: %s", rfp.Title))
	if includeItems {
		parts = append(parts, fmt.Sprintf("Description: %s", rfp.Description))
	}

	budget := "Not specified"
	if rfp.BudgetAmount != nil {
		budget = fmt.Sprintf("%g", *rfp.BudgetAmount)
	}
	parts = append(parts, fmt.Sprintf("Budget: %s %s", rfp.BudgetCurrency, budget))

	deadline := "Not specified"
	if rfp.DeliveryDeadline != nil {
		deadline = rfp.DeliveryDeadline.Format("2006-01-02")
	}
	parts = append(parts, fmt.Sprintf("Delivery Deadline: %s", deadline))
	parts = append(parts, fmt.Sprintf("Payment Terms Required: %s", orNotSpecified(rfp.PaymentTerms)))
	parts = append(parts, fmt.Sprintf("Warranty Required: %s", orNotSpecified(rfp.WarrantyTerms)))

	if includeItems {
		parts = append(parts, "", "Required Items:")
		for i, item := range rfp.Items {
			specs := item.Specs
			if specs == "" {
				specs = "N/A"
			}
			parts = append(parts, fmt.Sprintf("%d. %s - Quantity: %g - Specs: %s", i+1, item.Name, item.Quantity, specs))
		}
	}

	return strings.Join(parts, "\n") + "\n"
}

func renderProposalBlock(index int, p models.VendorProposal) string {
	var parts []string

	name := p.VendorName
	if name == "" {
		name = "Unknown"
	}
	parts = append(parts, "", fmt.Sprintf("Vendor %d: %s", index+1, name))
	parts = append(parts, fmt.Sprintf("- Total Price: %s %g", p.Extract.Currency, p.Extract.TotalPrice))

	delivery := "Not specified"
	if p.Extract.DeliveryDays != nil {
		delivery = fmt.Sprintf("%d days", *p.Extract.DeliveryDays)
	}
	parts = append(parts, fmt.Sprintf("- Delivery: %s", delivery))
	parts = append(parts, fmt.Sprintf("- Payment Terms: %s", orNotSpecified(p.Extract.PaymentTerms)))
	parts = append(parts, fmt.Sprintf("- Warranty: %s", orNotSpecified(p.Extract.Warranty)))

	notes := p.Extract.Notes
	if notes == "" {
		notes = "None"
	}
	parts = append(parts, fmt.Sprintf("- Notes: %s", notes))

	return strings.Join(parts, "\n") + "\n"
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

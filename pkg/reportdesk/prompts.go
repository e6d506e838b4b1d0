package reportdesk

import (
	"fmt"
	"strings"
)

const creditReportPromptTemplate = `You are an expert credit analyst. Given the following user data, generate a detailed credit report including:

- Estimated Credit Score (out of 850)
- Score Required for Loan Approval (assume 650)
- Risk Level (Low, Medium, High)
- Loan Approval Decision (Approved or Rejected)
- Key Points (short bullet points)
- Reasons for this loan decision (short bullet points)

Format the report clearly with each item on its own line, and prefix bullet points with '-'.

User Details:
Name: %s
Age: %d
Monthly Income: ₹%s
Employment Status: %s
Total Current Debt: ₹%s
Credit History Length (years): %d
Missed Payments in Last 12 Months: %d
`

const insightPromptTemplate = `You are an equity research assistant. List the top %[3]d companies for investment in the %[2]s sector in %[1]s.

Number each company on its own line as "1.", "2.", "3." and give each a short description of why it stands out, in two or three sentences.
After the list add one line that starts with "Market Insight:" summarising the outlook for the %[2]s sector in %[1]s.
Do not use tables.
`

func buildCreditReportPrompt(applicant CreditApplicant) string {
	return fmt.Sprintf(creditReportPromptTemplate,
		applicant.Name,
		applicant.Age,
		applicant.Income.Display(),
		applicant.Employment,
		applicant.Debts.Display(),
		applicant.HistoryYears,
		applicant.MissedPayments,
	)
}

func buildInsightPrompt(location, sector string, count int) string {
	return strings.TrimSpace(fmt.Sprintf(insightPromptTemplate, location, sector, count)) + "\n"
}

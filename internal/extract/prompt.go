package extract

// Instructions is the system instruction the extraction session is
// bound to.
const Instructions = "You are a financial analyst expert in extracting and analyzing financial data from 10-K reports. Always respond with properly formatted JSON."

// ExtractionPrompt asks for the canonical fact-set payload. The field
// set is closed; anything outside it is rejected at parse time.
const ExtractionPrompt = `Please analyze this financial document and extract the following information in JSON format:

{
    "document_info": {
        "company_name": "string",
        "fiscal_year": "YYYY",
        "document_type": "10-K"
    },
    "income_statement": {
        "revenue": number,
        "operating_income": number,
        "net_income": number
    },
    "balance_sheet": {
        "total_assets": number,
        "total_liabilities": number,
        "total_equity": number
    },
    "cash_flow": {
        "operating_cash_flow": number,
        "investing_cash_flow": number,
        "financing_cash_flow": number
    }
}

Please ensure all numbers are in millions of USD and use consistent accounting standards.`

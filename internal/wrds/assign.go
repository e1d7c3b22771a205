package wrds

// AssignExchange maps a CRSP primary exchange code to a venue name.
func AssignExchange(primaryExch string) string {
	switch primaryExch {
	case "N":
		return "NYSE"
	case "A":
		return "AMEX"
	case "Q":
		return "NASDAQ"
	default:
		return "Other"
	}
}

// AssignIndustry maps a SIC code to a coarse industry group.
func AssignIndustry(siccd int64) string {
	switch {
	case siccd >= 1 && siccd <= 999:
		return "Agriculture"
	case siccd >= 1000 && siccd <= 1499:
		return "Mining"
	case siccd >= 1500 && siccd <= 1799:
		return "Construction"
	case siccd >= 2000 && siccd <= 3999:
		return "Manufacturing"
	case siccd >= 4000 && siccd <= 4899:
		return "Transportation"
	case siccd >= 4900 && siccd <= 4999:
		return "Utilities"
	case siccd >= 5000 && siccd <= 5199:
		return "Wholesale"
	case siccd >= 5200 && siccd <= 5999:
		return "Retail"
	case siccd >= 6000 && siccd <= 6799:
		return "Finance"
	case siccd >= 7000 && siccd <= 8999:
		return "Services"
	case siccd >= 9000 && siccd <= 9999:
		return "Public"
	default:
		return "Missing"
	}
}

// Package a is a test package for the status linter.
package a

import "domain"

// Test cases

func conversion() domain.Status {
	return domain.Status("received") // want `status literal "received" in conversion: use domain.StatusReceived`
}

func unknownConversion() domain.Status {
	return domain.Status("done") // want `unknown status "done" in conversion`
}

func comparison(wo *domain.WorkOrder) bool {
	return wo.Status == "in_progress" // want `status literal "in_progress" in comparison: use domain.StatusInProgress`
}

func reversedComparison(wo *domain.WorkOrder) bool {
	return "canceled" != wo.Status // want `status literal "canceled" in comparison: use domain.StatusCanceled`
}

func switchCases(wo *domain.WorkOrder) int {
	switch wo.Status {
	case domain.StatusReceived:
		return 1
	case "completed": // want `status literal "completed" in case: use domain.StatusCompleted`
		return 2
	case "archived": // want `unknown status "archived" in case`
		return 3
	}
	return 0
}

// Valid cases - should NOT produce warnings

func validComparison(wo *domain.WorkOrder) bool {
	return wo.Status == domain.StatusCompleted
}

func plainStrings(s string) bool {
	return s == "received"
}

func fromVariable(s string) domain.Status {
	return domain.Status(s)
}

package email

const (
	subjectLeadReassignedFmt     = "Novo lead para você: %s"
	subjectLeadAutoReassignedFmt = "Lead remanejado automaticamente: %s"
)

package meetsy

// Routing keys and template names.
const (
	CommandCreate = "/meetsycreate"
	CommandEnroll = "/meetsy-enroll"

	ActionDuration  = "create-duration-selection-action"
	ActionFrequency = "create-frequency-selection-action"
	ActionJoinType  = "create-joinType-selection-action"

	// FormCreate is both the create modal's callback id and its form id.
	FormCreate = "meetsy-create"
	// LegacyCallbackID is the blank callback id older create modals submit with.
	LegacyCallbackID = ""

	TemplateCreate = "CreateMeetsyModal"

	BlockDuration  = "duration-block"
	BlockFrequency = "frequency-block"
	BlockJoin      = "join-block"
)

// User-facing texts.
const (
	WelcomeMessage = "Welcome!  Meetsy is now setup for this channel\n" +
		">*Duration: 30 min*    :alarm_clock:\n" +
		">*Frequency: monthly*    :spiral_calendar_pad:\n" +
		">*Invites: member opt in*    :white_check_mark:"

	EnrolledMessage     = ":wave: You are enrolled in meetsy!"
	EnrollFailedMessage = "There was an error enrolling into meetsy.  Please try again or contact helpdesk"

	confirmationFormat = "Meetsy is now setup for this channel\n" +
		">*Duration: %s min*    :alarm_clock:\n" +
		">*Frequency: %s*    :spiral_calendar_pad:\n" +
		">*Invites: %s*    :white_check_mark:"
)

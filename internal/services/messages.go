package services

// Consumer-facing failure details.
const (
	MsgResourceNotFound     = "Resource not found"
	MsgUnauthorized         = "You are not authorized to perform this action"
	MsgInvalidCredentials   = "Invalid username or password"
	MsgUserNotAuthenticated = "User not authenticated"
	MsgAccountUnavailable   = "This account is banned or deleted"
	MsgInvalidBody          = "Request body is invalid"
	MsgMalformedID          = "Malformed id"

	MsgPostNotFound     = "Post not found"
	MsgPostUnauthorized = "You do not have permission to modify this post"

	MsgCommentNotFound     = "Comment not found"
	MsgCommentUnauthorized = "You do not have permission to modify this Comment"

	MsgUserNotFound     = "User not found"
	MsgUserUnauthorized = "You do not have permission to modify this user"
	MsgUsernameTaken    = "Username is already taken"
	MsgUsernameRequired = "Username is required"
	MsgUsernameTooLong  = "Username cannot exceed 50 characters"
	MsgWeakPassword     = "Password must be at least 8 characters and contain a letter and a digit"
	MsgCantBanSelf      = "You cannot ban yourself"
	MsgCantUnbanSelf    = "You cannot unban yourself"
	MsgCantReportSelf   = "You cannot report yourself"
	MsgReasonRequired   = "Reason is required"
	MsgReasonTooLong    = "Reason cannot exceed 200 characters"

	MsgTagNotFound = "Tag not found"

	MsgTitleRequired       = "Title is required"
	MsgTitleTooLong        = "Title cannot exceed 50 characters"
	MsgDescriptionRequired = "Description is required"
	MsgDescriptionTooLong  = "Description cannot exceed 500 characters"
	MsgLocationTooLong     = "Location cannot exceed %d characters"
	MsgCoordinatesPaired   = "Latitude and longitude must be provided together"
	MsgCoordinatesRange    = "Latitude must be between -90 and 90 and longitude between -180 and 180"
	MsgOutsideGeofence     = "Location is %.1f km from the city centre; posts must be within %.0f km"
	MsgContentRequired     = "Content is required"
	MsgContentTooLong      = "Content cannot exceed 500 characters"
	MsgInvalidVisibility   = "Visibility must be Published or Hidden"

	MsgInvalidVoteType = "Invalid vote type"
	MsgInvalidPeriod   = "Period must be one of day, week, month or year"
	MsgAdminOnlyFilter = "Only admins can filter or sort users by reports"
)

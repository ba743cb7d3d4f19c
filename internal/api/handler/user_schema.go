package handler

// ErrorResponse is the error envelope returned on every 4xx/5xx response.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// --- Request / Response types ---

type authenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authenticateResponse struct {
	Token string `json:"token"`
}

type userFields struct {
	Firstname   string `json:"firstname"   validate:"required,max=255"`
	Lastname    string `json:"lastname"    validate:"required,max=255"`
	Email       string `json:"email"       validate:"omitempty,email,max=255"`
	Profession  string `json:"profession"  validate:"max=255"`
	DateCreated string `json:"dateCreated" validate:"required,datetime=2006-01-02"`
	Country     string `json:"country"     validate:"max=255"`
	City        string `json:"city"        validate:"max=255"`
}

type createUserRequest struct {
	ID int64 `json:"id" validate:"required"`
	userFields
}

// updateUserRequest may omit id; the path id wins.
type updateUserRequest struct {
	ID int64 `json:"id"`
	userFields
}

type listUsersQuery struct {
	Offset        int    `query:"offset"`
	Limit         int    `query:"limit"`
	SortBy        string `query:"sortBy"`
	SortDirection string `query:"sortDirection"`
	StartDate     string `query:"startDate"     validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `query:"endDate"       validate:"omitempty,datetime=2006-01-02"`
	Profession    string `query:"profession"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email"`
	Profession  string `json:"profession"`
	DateCreated string `json:"dateCreated"`
	Country     string `json:"country"`
	City        string `json:"city"`
}

type listUsersResponse struct {
	Data       []userResponse `json:"data"`
	Total      int64          `json:"total"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

type uploadResponse struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
	Replayed bool   `json:"replayed,omitempty"`
}

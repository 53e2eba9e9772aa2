package models

// Folder is the serialized root-folder fragment written into the folder
// aggregation response. Only the fields the web UI reads off a root folder
// are carried; the full folder field catalog lives with the folder storage.
type Folder struct {
	ID          string `json:"id"`
	Name        string `json:"title"`
	AccountID   int    `json:"account_id"`
	Module      string `json:"module"`
	Subfolders  bool   `json:"subfolders"`
	TotalCount  int    `json:"total,omitempty"`
	UnreadCount int    `json:"unread,omitempty"`
}

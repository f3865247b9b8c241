package command

// Canonical action vocabulary. The AI system prompt, the keyword matcher and
// the handler registry all use these names.
const (
	OpenApp        = "open_app"
	CloseApp       = "close_app"
	OpenURL        = "open_url"
	OpenFolder     = "open_folder"
	WebSearch      = "web_search"
	TypeText       = "type_text"
	PressKey       = "press_key"
	Hotkey         = "hotkey"
	Screenshot     = "screenshot"
	MousePosition  = "mouse_position"
	Copy           = "copy"
	Paste          = "paste"
	ClearClipboard = "clear_clipboard"
	Wait           = "wait"
	Notify         = "notify"
	LockScreen     = "lock_screen"
	Shutdown       = "shutdown"
	Restart        = "restart"
	CancelShutdown = "cancel_shutdown"
	Sleep          = "sleep"
	VolumeUp       = "volume_up"
	VolumeDown     = "volume_down"
	Mute           = "mute"

	PlayMusic     = "play_music"
	MusicPlay     = "music_play"
	MusicPause    = "music_pause"
	MusicNext     = "music_next"
	MusicPrevious = "music_previous"

	SystemReport = "system_report"
	CheckCPU     = "check_cpu"
	CheckMemory  = "check_memory"
	CheckDisk    = "check_disk"
	HeavyApps    = "heavy_apps"

	SearchFiles       = "search_files"
	OrganizeDownloads = "organize_downloads"

	CreateNote = "create_note"
	ListNotes  = "list_notes"
	DeleteNote = "delete_note"

	AddContact    = "add_contact"
	ListContacts  = "list_contacts"
	GetContact    = "get_contact"
	DeleteContact = "delete_contact"
	SendMessage   = "send_message"

	SaveWorkflow   = "save_workflow"
	LoadWorkflow   = "load_workflow"
	ListWorkflows  = "list_workflows"
	DeleteWorkflow = "delete_workflow"

	ScheduleApp    = "schedule_app"
	ListSchedules  = "list_schedules"
	CancelSchedule = "cancel_schedule"

	ShowHistory    = "show_history"
	ShowStatistics = "show_statistics"

	GetTime = "get_time"
	GetDate = "get_date"
)

// aliases maps spellings seen in older prompts and model replies onto the
// canonical vocabulary.
var aliases = map[string]string{
	"search_web":           WebSearch,
	"google":               WebSearch,
	"lock_computer":        LockScreen,
	"lock_pc":              LockScreen,
	"lock":                 LockScreen,
	"shutdown_system":      Shutdown,
	"restart_system":       Restart,
	"open_apps_scheduled":  ScheduleApp,
	"get_heavy_apps":       HeavyApps,
	"copy_to_clipboard":    Copy,
	"paste_from_clipboard": Paste,
	"spotify_play_track":   PlayMusic,
	"spotify_play":         MusicPlay,
	"spotify_pause":        MusicPause,
	"spotify_next":         MusicNext,
	"spotify_previous":     MusicPrevious,
	"pause_music":          MusicPause,
	"next_song":            MusicNext,
	"previous_song":        MusicPrevious,
	"check_disk_space":     CheckDisk,
	"send_sms":             SendMessage,
	"run_workflow":         LoadWorkflow,
}

// Describe maps every canonical action to the parameter hint used in the
// interpreter's system prompt.
var Describe = []struct {
	Action string
	Hint   string
}{
	{OpenApp, "open an application (app_name)"},
	{CloseApp, "close an application (app_name)"},
	{OpenURL, "open a URL in the default browser (url)"},
	{OpenFolder, "open a folder (folder_path or folder_name: Desktop, Documents, Downloads)"},
	{WebSearch, "search the web (query)"},
	{TypeText, "type text into the focused window (text)"},
	{PressKey, "press a single key (key)"},
	{Hotkey, "press a key combination (keys: list of keys)"},
	{Screenshot, "take a screenshot (filename, optional)"},
	{MousePosition, "report the mouse position"},
	{Copy, "copy text to the clipboard (text)"},
	{Paste, "read the clipboard"},
	{ClearClipboard, "clear the clipboard"},
	{Wait, "wait (seconds)"},
	{Notify, "show a desktop notification (title, message)"},
	{LockScreen, "lock the screen"},
	{Shutdown, "shut down (delay_seconds, default 10)"},
	{Restart, "restart (delay_seconds, default 10)"},
	{CancelShutdown, "cancel a scheduled shutdown or restart"},
	{Sleep, "put the computer to sleep"},
	{VolumeUp, "raise system volume"},
	{VolumeDown, "lower system volume"},
	{Mute, "toggle mute"},
	{PlayMusic, "search and play a song on Spotify (query)"},
	{MusicPlay, "resume playback"},
	{MusicPause, "pause playback"},
	{MusicNext, "next track"},
	{MusicPrevious, "previous track"},
	{SystemReport, "full system report (CPU, memory, disk, uptime)"},
	{CheckCPU, "CPU usage"},
	{CheckMemory, "memory usage"},
	{CheckDisk, "disk usage (path, optional)"},
	{HeavyApps, "list the heaviest running processes (limit)"},
	{SearchFiles, "search files by glob (pattern, directory)"},
	{OrganizeDownloads, "sort the downloads folder into category folders"},
	{CreateNote, "save a note (content, category, tags)"},
	{ListNotes, "list notes (category, optional)"},
	{DeleteNote, "delete a note (id)"},
	{AddContact, "add a contact (name, phone, email, slack)"},
	{ListContacts, "list contacts"},
	{GetContact, "show a contact (name)"},
	{DeleteContact, "delete a contact (name)"},
	{SendMessage, "send a chat message (contact_name or channel, message)"},
	{SaveWorkflow, "save a workflow template (name, steps, description)"},
	{LoadWorkflow, "run a saved workflow (name)"},
	{ListWorkflows, "list saved workflows"},
	{DeleteWorkflow, "delete a workflow (name)"},
	{ScheduleApp, "open apps daily at a time (time HH:MM, apps: list)"},
	{ListSchedules, "list scheduled app launches"},
	{CancelSchedule, "cancel a scheduled launch (id)"},
	{ShowHistory, "show recent commands (limit)"},
	{ShowStatistics, "show usage statistics"},
	{GetTime, "tell the current time"},
	{GetDate, "tell today's date"},
}

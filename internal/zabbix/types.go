package zabbix

// Read-side records. The API returns every identifier and flag as a quoted
// string, hence the ",string" options.

// Host is a record returned by host.get with the selectors used by the fetcher.
type Host struct {
	HostID          int             `json:"hostid,string"`
	Host            string          `json:"host"`
	ProxyHostID     int             `json:"proxy_hostid,string"`
	InventoryMode   int             `json:"inventory_mode,string"`
	Interfaces      []HostInterface `json:"interfaces"`
	Groups          []HostGroup     `json:"groups"`
	ParentTemplates []Template      `json:"parentTemplates"`
	Macros          []Macro         `json:"macros"`
	HTTPTests       []HTTPTestRef   `json:"httpTests"`
}

// HostInterface https://www.zabbix.com/documentation/6.0/en/manual/api/reference/hostinterface/object
type HostInterface struct {
	InterfaceID int    `json:"interfaceid,string"`
	Type        int    `json:"type,string"`
	Main        int    `json:"main,string"`
	IP          string `json:"ip"`
	DNS         string `json:"dns"`
	Port        string `json:"port"` // may hold a user macro
	UseIP       int    `json:"useip,string"`
}

type HostGroup struct {
	GroupID int    `json:"groupid,string"`
	Name    string `json:"name"`
}

type Template struct {
	TemplateID int    `json:"templateid,string"`
	Host       string `json:"host"`
}

type Proxy struct {
	ProxyID int    `json:"proxyid,string"`
	Host    string `json:"host"`
}

// Macro is used both ways: host.get output and host.create/update input.
type Macro struct {
	Macro string `json:"macro"`
	Value string `json:"value"`
}

type HTTPTestRef struct {
	HTTPTestID int `json:"httptestid,string"`
}

// HTTPTest is a web scenario with its steps.
type HTTPTest struct {
	HTTPTestID int        `json:"httptestid,string"`
	Name       string     `json:"name"`
	Steps      []HTTPStep `json:"steps"`
}

type HTTPStep struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	StatusCodes string `json:"status_codes"`
	No          int    `json:"no,string"`
}

// HTTPTestQuery selects web scenarios either by owning host or by id.
type HTTPTestQuery struct {
	HostIDs     []int
	HTTPTestIDs []int
}

// Write-side payloads. Identifiers are sent as JSON numbers, which the API
// accepts for every id field.

// GroupRef and TemplateRef are the {"groupid": n} / {"templateid": n} objects
// host.create and host.update expect.
type GroupRef struct {
	GroupID int `json:"groupid"`
}

type TemplateRef struct {
	TemplateID int `json:"templateid"`
}

type InterfaceCreate struct {
	Type  int    `json:"type"`
	Main  int    `json:"main"`
	IP    string `json:"ip"`
	DNS   string `json:"dns"`
	Port  string `json:"port"`
	UseIP int    `json:"useip"`
}

type HostCreate struct {
	Host          string            `json:"host"`
	ProxyHostID   *int              `json:"proxy_hostid,omitempty"`
	Interfaces    []InterfaceCreate `json:"interfaces"`
	Templates     []TemplateRef     `json:"templates"`
	Groups        []GroupRef        `json:"groups"`
	Macros        []Macro           `json:"macros,omitempty"`
	InventoryMode int               `json:"inventory_mode"`
}

// HostUpdate carries a host id and any subset of the updatable fields.
// Nil fields are not sent; a non-nil empty list is sent and clears the field.
type HostUpdate struct {
	HostID         int            `json:"hostid"`
	Templates      *[]TemplateRef `json:"templates,omitempty"`
	TemplatesClear *[]TemplateRef `json:"templates_clear,omitempty"`
	Macros         *[]Macro       `json:"macros,omitempty"`
}

// HostUpsert updates the host named Host, creating it when it does not exist.
type HostUpsert struct {
	Host          string      `json:"host"`
	Groups        *[]GroupRef `json:"groups,omitempty"`
	ProxyHostID   *int        `json:"proxy_hostid,omitempty"`
	InventoryMode *int        `json:"inventory_mode,omitempty"`
}

// InterfaceUpdate changes the named fields of one interface.
type InterfaceUpdate struct {
	InterfaceID int     `json:"interfaceid"`
	IP          *string `json:"ip,omitempty"`
	UseIP       *int    `json:"useip,omitempty"`
	DNS         *string `json:"dns,omitempty"`
	Port        *string `json:"port,omitempty"`
	Type        *int    `json:"type,omitempty"`
}

type HTTPStepCreate struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	StatusCodes string `json:"status_codes"`
	No          int    `json:"no"`
}

type HTTPTestCreate struct {
	HostID int              `json:"hostid"`
	Name   string           `json:"name"`
	Steps  []HTTPStepCreate `json:"steps"`
}

// Ptr returns a pointer to v, for the optional fields above.
func Ptr[T any](v T) *T {
	return &v
}

package desired

// File is the top-level structure of the desired hosts file.
type File struct {
	Hosts []HostSpec `yaml:"hosts" validate:"required,unique=Name,dive"`
}

// HostSpec declares one host. Pointer fields fall back to defaults when
// omitted; nil slices and maps mean the property is not managed.
type HostSpec struct {
	Name          string            `yaml:"name" validate:"required,max=128"`
	Ensure        string            `yaml:"ensure,omitempty" validate:"omitempty,oneof=present absent"`
	Interface     InterfaceSpec     `yaml:"interface"`
	Groups        []string          `yaml:"groups" validate:"required_unless=Ensure absent,unique,dive,required"`
	GroupCreate   bool              `yaml:"groupCreate,omitempty"`
	Templates     []string          `yaml:"templates,omitempty" validate:"omitempty,unique,dive,required"`
	Macros        map[string]string `yaml:"macros,omitempty" validate:"omitempty,dive,keys,usermacro,endkeys"`
	WebChecks     []WebCheckSpec    `yaml:"webChecks,omitempty" validate:"omitempty,unique=Name,dive"`
	Proxy         string            `yaml:"proxy,omitempty"`
	InventoryMode *int              `yaml:"inventoryMode,omitempty" validate:"omitempty,min=-1,max=1"`
}

type InterfaceSpec struct {
	IP    string `yaml:"ip" validate:"omitempty,ip"`
	UseIP *bool  `yaml:"useIP,omitempty"`
	Port  *int   `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Type  *int   `yaml:"type,omitempty" validate:"omitempty,min=1,max=4"`
}

// WebCheckSpec is a web scenario. Steps run in the listed order.
type WebCheckSpec struct {
	Name  string     `yaml:"name" validate:"required"`
	Steps []StepSpec `yaml:"steps" validate:"required,min=1,dive"`
}

type StepSpec struct {
	Name        string `yaml:"name" validate:"required"`
	URL         string `yaml:"url" validate:"required,url"`
	StatusCodes string `yaml:"statusCodes,omitempty"`
}

package model

// AttributeDescriptions names every attribute the extraction prompt asks the
// model to fill, with a short description the prompt embeds verbatim.
var AttributeDescriptions = map[string]string{
	"name":                            "The official name of the product (e.g., AIMB-275, COM-EXPRESS COMPACT, ROCK PI N, VENICE GW).",
	"manufacturer":                    "The company that produces the product (e.g., ADVANTECH, CONGATEC, KONTRON, RASPBERRY PI, NVIDIA).",
	"form_factor":                     "The single, primary physical form factor or standard of the product (e.g., COM EXPRESS, SBC, MINI-ITX, SMARC, QSEVEN, PICO-ITX).",
	"evaluation_or_commercialization": "Indicates if the product is for evaluation or commercial use (True for evaluation, False for commercial).",
	"processor_architecture":          "The architecture of the processor (e.g., X86, ARM, X86-64, RISC-V, INTEL ATOM, ARM CORTEX-A53).",
	"processor_core_count":            "The number of cores in the processor (e.g., 1, 2, 4, 8, 1-16).",
	"processor_manufacturer":          "The company that manufactures the processor (e.g., INTEL, NXP, AMD, BROADCOM, ROCKCHIP, TEXAS INSTRUMENTS).",
	"processor_tdp":                   "The Thermal Design Power of the processor (e.g., 6.0W, 15.0W, 35.0W-65.0W).",
	"memory":                          "The size and type of RAM in the product (e.g., 8.0GB DDR4, 4.0GB LPDDR4, 0-32.0GB DDR4).",
	"onboard_storage":                 "The amount and type of built-in storage (e.g., 64.0GB EMMC, MSATA, NVME SSD, MICROSD CARD SLOT).",
	"input_voltage":                   "The required input voltage for operation (e.g., 12.0V, 5.0V, 9.0V-36.0V, ATX).",
	"io_count":                        "The count and types of Input/Output interfaces (e.g., USB 3.0, SERIAL, ETHERNET, PCIE, SATA, GPIO).",
	"wireless":                        "Wireless capabilities (e.g., WI-FI, BLUETOOTH, 4G/LTE, 5G, ZIGBEE, NFC).",
	"operating_system_bsp":            "Supported operating systems or Board Support Packages (e.g., LINUX, WINDOWS 10, ANDROID, VXWORKS, YOCTO LINUX).",
	"operating_temperature_max":       "The maximum operating temperature (e.g., 60°C, 85°C, 70°C).",
	"operating_temperature_min":       "The minimum operating temperature (e.g., -40°C, 0°C, -20°C).",
	"certifications":                  "Certifications and compliance standards met (e.g., CE, ROHS, FCC, UL, MIL-STD-810).",
	"price":                           "The cost of the product.",
	"stock_availability":              "Current stock status (e.g., In Stock, Out of Stock).",
	"lead_time":                       "Time required to fulfill an order.",
}

// CriticalAttributes are the identifying attributes an extraction cannot
// proceed without. If any of them is still missing after the first pass,
// the run terminates with an error while keeping the partial result.
var CriticalAttributes = []string{"name", "manufacturer", "form_factor"}

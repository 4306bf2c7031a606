// Package seed holds the built-in knowledge base and agent roster. They back
// degraded reads when neither Postgres nor the cache can answer, and they are
// what cmd/seed loads into a fresh database.
package seed

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// epoch is the fixed creation time of every seeded record.
var epoch = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

// Articles returns a fresh copy of the seeded knowledge base.
func Articles() []domain.Article {
	out := make([]domain.Article, len(articles))
	for i, a := range articles {
		a.Tags = append([]string(nil), a.Tags...)
		a.CreatedAt = epoch
		a.UpdatedAt = epoch.Add(time.Duration(i) * time.Hour)
		out[i] = a
	}
	return out
}

// Agents returns a fresh copy of the seeded roster. Seeded agents carry no
// password; cmd/seed sets one.
func Agents() []domain.Agent {
	out := make([]domain.Agent, len(agents))
	for i, a := range agents {
		skills := make(map[domain.Category]int, len(a.Skills))
		for k, v := range a.Skills {
			skills[k] = v
		}
		a.Skills = skills
		a.Role = domain.AgentRoleAgent
		a.Status = domain.AgentStatusActive
		a.CreatedAt = epoch
		a.UpdatedAt = epoch
		out[i] = a
	}
	return out
}

func skills(categories ...domain.Category) map[domain.Category]int {
	m := make(map[domain.Category]int, len(categories))
	for i, c := range categories {
		// first listed skill is the strongest
		m[c] = 5 - i
	}
	return m
}

var agents = []domain.Agent{
	{ID: "5d0c3a4e-0b7f-4c61-9a51-1f6f0e8a0001", Name: "Sarah Wilson", Email: "sarah.wilson@servicedesk.local",
		Skills: skills(domain.CategoryNetwork, domain.CategoryHardware, domain.CategorySecurity)},
	{ID: "5d0c3a4e-0b7f-4c61-9a51-1f6f0e8a0002", Name: "Mike Chen", Email: "mike.chen@servicedesk.local",
		Skills: skills(domain.CategorySoftware, domain.CategoryEmail, domain.CategoryAccess)},
	{ID: "5d0c3a4e-0b7f-4c61-9a51-1f6f0e8a0003", Name: "Emma Rodriguez", Email: "emma.rodriguez@servicedesk.local",
		Skills: skills(domain.CategoryAccess, domain.CategorySecurity, domain.CategoryOther)},
	{ID: "5d0c3a4e-0b7f-4c61-9a51-1f6f0e8a0004", Name: "David Kim", Email: "david.kim@servicedesk.local",
		Skills: skills(domain.CategoryHardware, domain.CategorySoftware, domain.CategoryNetwork)},
	{ID: "5d0c3a4e-0b7f-4c61-9a51-1f6f0e8a0005", Name: "Lisa Anderson", Email: "lisa.anderson@servicedesk.local",
		Skills: skills(domain.CategoryEmail, domain.CategorySoftware, domain.CategoryOther)},
	{ID: "5d0c3a4e-0b7f-4c61-9a51-1f6f0e8a0006", Name: "Alex Thompson", Email: "alex.thompson@servicedesk.local",
		Skills: skills(domain.CategoryNetwork, domain.CategorySecurity, domain.CategoryHardware)},
}

var articles = []domain.Article{
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0001",
		Title:    "How to Reset Your Windows Password",
		Category: domain.CategoryAccess,
		Tags:     []string{"password", "reset", "windows", "login", "security"},
		Author:   "IT Support Team",
		Content: `On the login screen choose "Reset password" and answer your security questions.
An administrator can change the password under Settings > Accounts > Family & other users.
From an elevated command prompt run: net user <username> <newpassword>.
Passwords need at least 8 characters with upper case, lower case, digits and symbols.
Contact IT support if none of these methods work.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0002",
		Title:    "VPN Connection Setup Guide",
		Category: domain.CategoryNetwork,
		Tags:     []string{"vpn", "remote", "connection", "security", "setup"},
		Author:   "Network Team",
		Content: `Download the company VPN client from the IT portal and install it as administrator.
Add a new connection to vpn.company.com using IKEv2 with your username and password.
On macOS add an IKEv2 VPN service under System Preferences > Network.
If the connection fails check your internet connection and credentials, then try another server location.
Always use the VPN when working remotely.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0003",
		Title:    "Email Configuration for Outlook",
		Category: domain.CategoryEmail,
		Tags:     []string{"outlook", "email", "configuration", "imap", "smtp"},
		Author:   "IT Support Team",
		Content: `Office 365 accounts configure automatically via File > Add Account in Outlook.
Manual IMAP: mail.company.com port 993 SSL/TLS, SMTP smtp.company.com port 587 STARTTLS.
"Cannot connect to server": check the connection, server settings and firewall.
"Authentication failed": verify the password and generate an app password when 2FA is on.
Emails not syncing: check sync settings, clear the Outlook cache and restart Outlook.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0004",
		Title:    "Printer Setup and Troubleshooting",
		Category: domain.CategoryHardware,
		Tags:     []string{"printer", "setup", "troubleshooting", "network", "drivers"},
		Author:   "IT Support Team",
		Content: `Add a network printer under Settings > Devices > Printers & scanners, or by TCP/IP address.
Printer offline: check power and network cables, restart the printer and update drivers.
Jobs stuck in the queue: cancel all documents and restart the Print Spooler service.
Poor print quality: check toner, run the cleaning cycle and replace cartridges if needed.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0005",
		Title:    "Software Installation Requests",
		Category: domain.CategorySoftware,
		Tags:     []string{"software", "installation", "approval", "security", "licensing"},
		Author:   "IT Security Team",
		Content: `Office, Acrobat Reader, Chrome, Firefox, Zoom and Teams can be installed without approval.
Install approved software yourself from the Company Portal, or submit a ticket with a business justification.
New software needs manager approval and a security review of 5-10 business days.
Peer-to-peer tools, crypto miners and unlicensed software are prohibited.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0006",
		Title:    "Wi-Fi Connection Troubleshooting",
		Category: domain.CategoryNetwork,
		Tags:     []string{"wifi", "wireless", "connection", "troubleshooting", "network"},
		Author:   "Network Team",
		Content: `Join the corporate wireless network with your domain credentials.
Cannot see the network: make sure wifi is enabled, refresh and restart the adapter.
Cannot connect: forget the network and reconnect, then ask IT to verify your account.
Slow or dropping connection: check signal strength, update wifi drivers and disable power management.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0007",
		Title:    "Multi-Factor Authentication (MFA) Setup",
		Category: domain.CategorySecurity,
		Tags:     []string{"mfa", "authentication", "security", "microsoft", "2fa"},
		Author:   "IT Security Team",
		Content: `Install Microsoft Authenticator and sign in at the MFA setup page with your company account.
Scan the QR code and enter the verification code to finish.
SMS, phone calls and hardware tokens are also supported.
Report a lost phone immediately so IT can reset your authentication methods.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0008",
		Title:    "File Sharing and OneDrive Usage",
		Category: domain.CategorySoftware,
		Tags:     []string{"onedrive", "sharepoint", "file sharing", "collaboration", "cloud"},
		Author:   "IT Support Team",
		Content: `Store work files in OneDrive and share them with a link instead of email attachments.
Use SharePoint team sites for department documents.
Sync problems: pause and resume syncing, check free disk space and sign in again.
Do not share sensitive files with external addresses.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0009",
		Title:    "Advanced Password Recovery Methods",
		Category: domain.CategoryAccess,
		Tags:     []string{"password", "recovery", "advanced", "troubleshooting", "security"},
		Author:   "IT Security Team",
		Content: `Use the self-service password portal when you are locked out of your account.
A locked account unlocks automatically after 30 minutes, or IT can unlock it sooner.
For cached credentials on laptops connect to the VPN before changing the password.
Never share a temporary password.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0010",
		Title:    "VPN Troubleshooting Checklist",
		Category: domain.CategoryNetwork,
		Tags:     []string{"vpn", "troubleshooting", "connectivity", "network", "remote"},
		Author:   "Network Team",
		Content: `Confirm the internet connection works without the VPN.
Restart the VPN client and check the client version is current.
Authentication errors usually mean an expired password or missing MFA approval.
If the VPN connects but internal sites fail, flush DNS and reconnect.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0011",
		Title:    "Email Synchronization Best Practices",
		Category: domain.CategoryEmail,
		Tags:     []string{"email", "synchronization", "outlook", "exchange", "mobile"},
		Author:   "IT Support Team",
		Content: `Keep the mailbox under quota and archive old mail to keep sync fast.
On mobile devices use the Outlook app with Exchange sync.
If folders stop syncing, repair the Outlook profile and rebuild the offline cache.
Large attachments slow synchronization; share files through OneDrive.`,
	},
	{
		ID:       "8b1f6c2a-3d4e-4f50-8a61-7c8d9e0f0012",
		Title:    "Printer Driver Installation Guide",
		Category: domain.CategoryHardware,
		Tags:     []string{"printer", "driver", "installation", "troubleshooting", "network"},
		Author:   "IT Support Team",
		Content: `Download drivers from the manufacturer support site for your printer model.
Remove the old driver from Print Management before installing the new one.
Choose the universal driver when the exact model is not listed.
Restart the Print Spooler service after installation.`,
	},
}

package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	require.Equal(t, "preparer l'avis d'expedition", Fold("  Préparer   l'Avis d'Expédition "))
	require.Equal(t, "accepte", Fold("Accepté"))
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Mes Commandes", []string{"commandes"}))
	require.False(t, MatchName("Factures", []string{"commandes"}))
	require.False(t, MatchName("Factures", []string{""}))
}

func TestContainsAny(t *testing.T) {
	require.True(t, ContainsAny("DESADV à faire", []string{"desadv"}))
	require.True(t, ContainsAny("Avis d'expédition requis", []string{"avis d'expedition"}))
	require.False(t, ContainsAny("Nouveau", []string{"desadv", "avis d'expedition"}))
	require.False(t, ContainsAny("Nouveau", []string{"", " + "}))

	require.True(t, ContainsAny("ouvrirDesadv(1) Créer", []string{"desadv + creer"}))
	require.True(t, ContainsAny("page=desadv_preparer", []string{"desadv + creer", "desadv+preparer"}))
	require.False(t, ContainsAny("page=desadv_consulter Consulter", []string{"desadv + creer", "desadv + preparer"}))
}

func TestClosestName(t *testing.T) {
	candidates := []string{"Accueil", "Factures", "Comandes", "Déconnexion"}
	require.Equal(t, 2, ClosestName("Commandes", candidates, 0.85))
	require.Equal(t, -1, ClosestName("Commandes", []string{"Accueil", "Profil"}, 0.85))
}
